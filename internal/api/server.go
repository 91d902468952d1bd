// Package api implements the HTTP layer for the Furniture Taxi lead service.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/furniture-taxi-leads/internal/grants"
	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
	"github.com/nyashahama/furniture-taxi-leads/internal/metrics"
	"github.com/nyashahama/furniture-taxi-leads/internal/notify"
	"github.com/nyashahama/furniture-taxi-leads/internal/quote"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// AllowedOrigins lists the origins allowed cross-origin access in
	// production. Outside production every origin is echoed back.
	AllowedOrigins []string

	// RequestTimeout bounds each request. Defaults to 30s.
	RequestTimeout time.Duration
}

// CodeResolver looks up link codes.
type CodeResolver interface {
	Resolve(ctx context.Context, session, code string) (grants.Result, error)
}

// EventRecorder records the all-fields-filled analytics event.
type EventRecorder interface {
	AllFieldsFilled(ctx context.Context, session, code string, fields lead.Lead) bool
}

// QuoteService proxies and prices the widget configuration.
type QuoteService interface {
	FetchConfig(ctx context.Context) (quote.Config, error)
	Estimate(ctx context.Context, req quote.Request) (quote.Quote, error)
}

// Notifier sends the lead and widget notification emails.
type Notifier interface {
	SendLeadNotifications(ctx context.Context, l lead.Lead, q *quote.Quote, hasDiscount bool) (notify.Result, error)
	SendQuoteNotifications(ctx context.Context, s notify.WidgetSubmission) (notify.Result, error)
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// codes resolves discount and referral links.
	codes CodeResolver

	// events records fire-and-forget analytics.
	events EventRecorder

	// quotes fetches the pricing config and computes estimates.
	quotes QuoteService

	// notifier sends the admin and customer emails.
	notifier Notifier

	// metrics may be nil.
	metrics *metrics.Metrics

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.Server.
func NewServer(
	codes CodeResolver,
	events EventRecorder,
	quotes QuoteService,
	notifier Notifier,
	m *metrics.Metrics,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		codes:    codes,
		events:   events,
		quotes:   quotes,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	// ── Health + metrics ──────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	// ── Browser-session routes ────────────────────────────────────────────────
	// These carry the session cookie that scopes once-per-session events.
	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/", s.handleForm)
		r.Post("/", s.handleFormSubmit)
		r.Get("/codes/{code}", s.handleResolveCode)
		r.Post("/fields-filled", s.handleFieldsFilled)
	})

	// ── JSON API ──────────────────────────────────────────────────────────────
	r.Get("/quote-config", s.handleQuoteConfig)
	r.Post("/quote", s.handleQuote)
	r.Post("/submit-lead", s.handleSubmitLead)
	r.Post("/chalk-webhook", s.handleChalkWebhook)

	// Paths used by already-deployed widget and landing pages.
	r.Route("/api", func(r chi.Router) {
		r.Get("/get-quote", s.handleQuoteConfig)
		r.Post("/get-quote", s.handleQuote)
		r.Post("/send-email", s.handleSubmitLead)
		r.Post("/chalk-webhook", s.handleChalkWebhook)
	})

	return r
}
