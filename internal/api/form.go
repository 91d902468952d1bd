package api

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/nyashahama/furniture-taxi-leads/internal/grants"
	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
	"github.com/nyashahama/furniture-taxi-leads/internal/web"
)

const submitFailedMsg = "We could not submit your request. Please try again."

// ─── GET / ────────────────────────────────────────────────────────────────────

// handleForm renders the request form. A ?code= link is resolved first: a
// match pre-fills the contact fields and shows the discount notice.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	page := web.NewFormPage(code, lead.Lead{})

	if code != "" {
		res, ok := s.resolveForForm(r, code)
		switch {
		case !ok:
			page.Error = grants.FailureMessage
		case res.Found():
			page.Fields.Name = res.Name
			page.Fields.Email = res.Email
			page.Fields.Phone = res.Phone
			page.Notice = res.Message()
		default:
			page.Error = res.Message()
		}
	}

	s.renderForm(w, r, http.StatusOK, page)
}

// ─── POST / ───────────────────────────────────────────────────────────────────

// handleFormSubmit validates the posted form and dispatches the lead. Invalid
// input is sent back with field errors before any outbound call. The discount
// flag comes from resolving the code again, never from the client.
func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	code := strings.TrimSpace(r.PostForm.Get("code"))
	l := lead.Lead{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Phone:    r.PostForm.Get("phone"),
		FromZip:  r.PostForm.Get("fromZip"),
		ToZip:    r.PostForm.Get("toZip"),
		MoveDate: r.PostForm.Get("moveDate"),
		MoveSize: r.PostForm.Get("moveSize"),
	}.Normalize()

	page := web.NewFormPage(code, l)

	if err := l.Validate(); err != nil {
		var verr *lead.ValidationError
		if !errors.As(err, &verr) {
			s.logger.Error("form: unexpected validation error", "error", err, logField(r))
			page.Error = submitFailedMsg
			s.renderForm(w, r, http.StatusUnprocessableEntity, page)
			return
		}
		s.metrics.ObserveLeadRejected()
		page.SetValidation(verr)
		s.renderForm(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	hasDiscount := false
	if code != "" {
		if res, ok := s.resolveForForm(r, code); ok {
			hasDiscount = res.Found()
		}
	}

	if _, err := s.notifier.SendLeadNotifications(r.Context(), l, nil, hasDiscount); err != nil {
		s.logger.Error("form: notification dispatch failed", "error", err, logField(r))
		page.Error = submitFailedMsg
		s.renderForm(w, r, http.StatusInternalServerError, page)
		return
	}

	var buf bytes.Buffer
	if err := web.RenderSuccess(&buf, hasDiscount); err != nil {
		s.logger.Error("form: render success", "error", err, logField(r))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// renderForm buffers the page so a template error can still become a 500.
func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, page web.FormPage) {
	var buf bytes.Buffer
	if err := web.RenderForm(&buf, page); err != nil {
		s.logger.Error("form: render", "error", err, logField(r))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
