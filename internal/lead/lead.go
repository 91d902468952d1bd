// Package lead defines the moving request captured by the form and the rules a
// request must satisfy before it is forwarded for notification. It imports
// nothing from internal/ so every other package can depend on it.
package lead

import (
	"fmt"
	"regexp"
	"strings"
)

// DiscountAmount is the flat discount, in currency units, unlocked by a valid
// discount or referral code.
const DiscountAmount = 50

var zipPattern = regexp.MustCompile(`^[0-9]{5}$`)

// Lead is a prospective customer's move request.
type Lead struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	FromZip  string `json:"fromZip"`
	ToZip    string `json:"toZip"`
	MoveDate string `json:"moveDate"`
	MoveSize string `json:"moveSize"`
}

// MoveSize is one entry of the move-size select on the form.
type MoveSize struct {
	Value string
	Label string
}

// MoveSizes lists the selectable move sizes in display order.
var MoveSizes = []MoveSize{
	{Value: "studio", Label: "Studio"},
	{Value: "1-bedroom", Label: "1 Bedroom"},
	{Value: "2-bedroom", Label: "2 Bedroom"},
	{Value: "3-bedroom", Label: "3 Bedroom"},
	{Value: "4-bedroom", Label: "4+ Bedroom"},
	{Value: "office", Label: "Office"},
	{Value: "storage", Label: "Storage Unit"},
}

// MoveSizeLabel returns the display label for value, or value itself when it
// is not one of MoveSizes.
func MoveSizeLabel(value string) string {
	for _, m := range MoveSizes {
		if m.Value == value {
			return m.Label
		}
	}
	return value
}

// Normalize returns a copy of l with surrounding whitespace removed from every
// field.
func (l Lead) Normalize() Lead {
	return Lead{
		Name:     strings.TrimSpace(l.Name),
		Email:    strings.TrimSpace(l.Email),
		Phone:    strings.TrimSpace(l.Phone),
		FromZip:  strings.TrimSpace(l.FromZip),
		ToZip:    strings.TrimSpace(l.ToZip),
		MoveDate: strings.TrimSpace(l.MoveDate),
		MoveSize: strings.TrimSpace(l.MoveSize),
	}
}

// Snapshot returns the field mapping recorded with the all-fields-filled event.
// Keys match the JSON field names of Lead.
func (l Lead) Snapshot() map[string]string {
	return map[string]string{
		"name":     l.Name,
		"email":    l.Email,
		"phone":    l.Phone,
		"fromZip":  l.FromZip,
		"toZip":    l.ToZip,
		"moveDate": l.MoveDate,
		"moveSize": l.MoveSize,
	}
}

// AllFilled reports whether every field holds a non-blank value.
func (l Lead) AllFilled() bool {
	for _, v := range l.Snapshot() {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// FieldError describes one failing field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "lead: invalid fields: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Validate checks that every field is present and both zip codes are five
// digits. It returns a *ValidationError, or nil when the lead may be submitted.
// Call Normalize first; Validate does not trim.
func (l Lead) Validate() error {
	var errs []FieldError

	required := []struct {
		field, value string
	}{
		{"name", l.Name},
		{"email", l.Email},
		{"phone", l.Phone},
		{"fromZip", l.FromZip},
		{"toZip", l.ToZip},
		{"moveDate", l.MoveDate},
		{"moveSize", l.MoveSize},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, FieldError{Field: r.field, Message: "is required"})
		}
	}

	for _, z := range []struct{ field, value string }{{"fromZip", l.FromZip}, {"toZip", l.ToZip}} {
		if z.value != "" && !zipPattern.MatchString(z.value) {
			errs = append(errs, FieldError{Field: z.field, Message: "must be a 5-digit zip code"})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

// Or returns v, or fallback when v is blank. Used by email templates that must
// render absent fields instead of failing.
func Or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
