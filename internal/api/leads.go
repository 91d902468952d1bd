package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jinzhu/copier"

	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
	"github.com/nyashahama/furniture-taxi-leads/internal/notify"
	"github.com/nyashahama/furniture-taxi-leads/internal/quote"
)

// ─── POST /submit-lead ────────────────────────────────────────────────────────

type submitLeadRequest struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	FromZip     string       `json:"fromZip"`
	ToZip       string       `json:"toZip"`
	MoveDate    string       `json:"moveDate"`
	MoveSize    string       `json:"moveSize"`
	HasDiscount bool         `json:"hasDiscount"`
	Quote       *quote.Quote `json:"quote,omitempty"`
}

// notificationResponse is shared by every endpoint that dispatches emails.
// customerEmailId is null when no customer message was sent.
type notificationResponse struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message,omitempty"`
	Error           string  `json:"error,omitempty"`
	AdminEmailID    string  `json:"adminEmailId,omitempty"`
	CustomerEmailID *string `json:"customerEmailId"`
}

// handleSubmitLead emails a lead posted by a client that has already
// validated it. Missing fields are not rejected; they render as
// "Not provided". Unknown fields from older callers are ignored.
func (s *Server) handleSubmitLead(w http.ResponseWriter, r *http.Request) {
	var req submitLeadRequest
	if !decodeLenient(w, r, &req) {
		return
	}

	var l lead.Lead
	if err := copier.Copy(&l, &req); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("submit lead: copy request: %w", err), "Failed to send email")
		return
	}
	l = l.Normalize()

	res, err := s.notifier.SendLeadNotifications(r.Context(), l, req.Quote, req.HasDiscount)
	s.respondNotification(w, r, res, err, "Emails sent successfully")
}

// respondNotification writes the outcome of a dispatch. A failed dispatch is
// a 500 carrying the normalized failure message and whatever IDs were sent.
func (s *Server) respondNotification(w http.ResponseWriter, r *http.Request, res notify.Result, err error, okMessage string) {
	if err != nil {
		f := notify.Normalize(err)
		var failure *notify.Failure
		if errors.As(err, &failure) {
			f = *failure
		}
		s.logger.Error("notification dispatch failed",
			"kind", string(f.Kind),
			"recipient", f.Recipient,
			"error", err,
			logField(r),
		)
		respond(w, http.StatusInternalServerError, notificationResponse{
			Success:         false,
			Error:           f.Message,
			AdminEmailID:    res.AdminMessageID,
			CustomerEmailID: res.CustomerMessageID,
		})
		return
	}

	respond(w, http.StatusOK, notificationResponse{
		Success:         true,
		Message:         okMessage,
		AdminEmailID:    res.AdminMessageID,
		CustomerEmailID: res.CustomerMessageID,
	})
}
