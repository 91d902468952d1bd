// Package web renders the request form and its confirmation page.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	formTmpl    = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/form.html"))
	successTmpl = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/success.html"))
)

// FormPage is the data behind the request form.
type FormPage struct {
	// Code is the link code, echoed into a hidden field and the
	// fields-filled beacon.
	Code   string
	Fields lead.Lead
	// Notice is a positive banner (discount applied); Error a negative one.
	Notice      string
	Error       string
	FieldErrors map[string]string
	MoveSizes   []lead.MoveSize
}

// NewFormPage returns a FormPage with the move-size options filled in.
func NewFormPage(code string, fields lead.Lead) FormPage {
	return FormPage{Code: code, Fields: fields, MoveSizes: lead.MoveSizes}
}

// SetValidation copies per-field messages out of a *lead.ValidationError.
func (p *FormPage) SetValidation(verr *lead.ValidationError) {
	p.FieldErrors = make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		if _, seen := p.FieldErrors[f.Field]; !seen {
			p.FieldErrors[f.Field] = f.Message
		}
	}
	p.Error = "Please correct the highlighted fields."
}

// SuccessPage is the data behind the confirmation page.
type SuccessPage struct {
	HasDiscount bool
	Discount    int
}

// RenderForm writes the form page.
func RenderForm(w io.Writer, p FormPage) error {
	if p.MoveSizes == nil {
		p.MoveSizes = lead.MoveSizes
	}
	if err := formTmpl.ExecuteTemplate(w, "form.html", p); err != nil {
		return fmt.Errorf("web: render form: %w", err)
	}
	return nil
}

// RenderSuccess writes the confirmation page.
func RenderSuccess(w io.Writer, hasDiscount bool) error {
	p := SuccessPage{HasDiscount: hasDiscount, Discount: lead.DiscountAmount}
	if err := successTmpl.ExecuteTemplate(w, "success.html", p); err != nil {
		return fmt.Errorf("web: render success: %w", err)
	}
	return nil
}
