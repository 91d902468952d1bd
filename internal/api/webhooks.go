package api

import (
	"net/http"

	"github.com/nyashahama/furniture-taxi-leads/internal/notify"
)

// ─── POST /chalk-webhook ──────────────────────────────────────────────────────

// handleChalkWebhook receives a quote-widget submission and emails the admin
// and, when an address was given, the customer.
//
// The widget owns the payload shape. Unknown fields are ignored, and quote
// and leadData are passed through raw so new widget fields still reach the
// admin email.
func (s *Server) handleChalkWebhook(w http.ResponseWriter, r *http.Request) {
	var sub notify.WidgetSubmission
	if !decodeLenient(w, r, &sub) {
		return
	}

	s.logger.Debug("webhook: widget submission received",
		"has_email", sub.Email != "",
		"has_quote", len(sub.Quote) > 0,
		logField(r),
	)

	res, err := s.notifier.SendQuoteNotifications(r.Context(), sub)
	s.respondNotification(w, r, res, err, "Quote emails sent successfully")
}
