package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/furniture-taxi-leads/internal/grants"
	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
)

// ─── GET /codes/{code} ────────────────────────────────────────────────────────

type resolveCodeResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// handleResolveCode resolves a link code for clients that render their own
// form. A match records the code-opened event for the caller's session.
func (s *Server) handleResolveCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	res, err := s.codes.Resolve(r.Context(), sessionID(r), code)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("resolve code: %w", err), grants.FailureMessage)
		return
	}

	body := resolveCodeResponse{
		Success: res.Found(),
		Kind:    string(res.Kind),
		Name:    res.Name,
		Email:   res.Email,
		Phone:   res.Phone,
		Message: res.Message(),
	}
	if !res.Found() {
		respond(w, http.StatusNotFound, body)
		return
	}
	respond(w, http.StatusOK, body)
}

// ─── POST /fields-filled ──────────────────────────────────────────────────────

type fieldsFilledRequest struct {
	Code   string    `json:"code"`
	Fields lead.Lead `json:"fields"`
}

type fieldsFilledResponse struct {
	Success bool `json:"success"`
	Logged  bool `json:"logged"`
}

// handleFieldsFilled is the form's beacon once every field holds a value. The
// event is written in the background, once per session and code; the
// response only says whether a write was scheduled.
func (s *Server) handleFieldsFilled(w http.ResponseWriter, r *http.Request) {
	var req fieldsFilledRequest
	if !decode(w, r, &req) {
		return
	}

	logged := s.events.AllFieldsFilled(r.Context(), sessionID(r), req.Code, req.Fields.Normalize())
	respond(w, http.StatusAccepted, fieldsFilledResponse{Success: true, Logged: logged})
}

// resolveForForm resolves code for the HTML form. Lookup failures are logged
// and reported as an error banner, never as a failed request.
func (s *Server) resolveForForm(r *http.Request, code string) (grants.Result, bool) {
	res, err := s.codes.Resolve(r.Context(), sessionID(r), code)
	if err != nil {
		if errors.Is(err, grants.ErrLookupUnavailable) {
			s.logger.Warn("form: code lookup unavailable", "error", err, logField(r))
		} else {
			s.logger.Error("form: unexpected resolve error", "error", err, logField(r))
		}
		return grants.Result{}, false
	}
	return res, true
}
