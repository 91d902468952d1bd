package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nyashahama/furniture-taxi-leads/internal/quote"
)

const quoteUnavailableMsg = "pricing configuration is unavailable, please try again later"

// ─── GET /quote-config ────────────────────────────────────────────────────────

type quoteConfigResponse struct {
	Success bool            `json:"success"`
	Config  json.RawMessage `json:"config"`
}

// handleQuoteConfig proxies the widget pricing configuration verbatim.
func (s *Server) handleQuoteConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.quotes.FetchConfig(r.Context())
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("fetch quote config: %w", err), quoteUnavailableMsg)
		return
	}

	respond(w, http.StatusOK, quoteConfigResponse{Success: true, Config: cfg.Raw})
}

// ─── POST /quote ──────────────────────────────────────────────────────────────

type quoteResponse struct {
	Success bool        `json:"success"`
	Quote   quote.Quote `json:"quote"`
}

// handleQuote prices a move against a freshly fetched configuration.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quote.Request
	if !decode(w, r, &req) {
		return
	}

	q, err := s.quotes.Estimate(r.Context(), req)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("estimate quote: %w", err), quoteUnavailableMsg)
		return
	}

	respond(w, http.StatusOK, quoteResponse{Success: true, Quote: q})
}
