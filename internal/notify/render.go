package notify

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"

	"github.com/tidwall/gjson"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
	"github.com/nyashahama/furniture-taxi-leads/internal/quote"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	tmplLeadAdmin     = "lead_admin.html"
	tmplLeadCustomer  = "lead_customer.html"
	tmplQuoteAdmin    = "quote_admin.html"
	tmplQuoteCustomer = "quote_customer.html"

	notProvided  = "Not provided"
	notAvailable = "N/A"
)

type rowView struct {
	Label string
	Value string
}

var templates = template.Must(template.New("notify").Funcs(template.FuncMap{
	"row": func(label, value string) rowView { return rowView{Label: label, Value: value} },
}).ParseFS(templateFS, "templates/*.html"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ─── MONEY ────────────────────────────────────────────────────────────────────

var printer = message.NewPrinter(language.AmericanEnglish)

// formatMoney renders v with two decimals and digit grouping. USD and unknown
// codes use a "$" prefix; other ISO codes are prefixed with the code.
func formatMoney(v float64, code string) string {
	amount := printer.Sprintf("%.2f", v)
	unit, err := currency.ParseISO(code)
	if err != nil || unit == currency.USD {
		return "$" + amount
	}
	return unit.String() + " " + amount
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ─── LEAD VIEWS ───────────────────────────────────────────────────────────────

type quoteView struct {
	BasePrice       string
	PriceMultiplier string
	EstimatedHours  string
	Subtotal        string
	Tax             string
	TaxRate         string
	Total           string
}

type leadView struct {
	Name        string
	Greeting    string
	Email       string
	Phone       string
	FromZip     string
	ToZip       string
	MoveDate    string
	MoveSize    string
	HasDiscount bool
	Discount    int
	Quote       *quoteView
	Support     string
	Year        int
}

func newLeadView(l lead.Lead, q *quote.Quote, hasDiscount bool, support string, year int) leadView {
	v := leadView{
		Name:        lead.Or(l.Name, notProvided),
		Greeting:    lead.Or(l.Name, "there"),
		Email:       lead.Or(l.Email, notProvided),
		Phone:       lead.Or(l.Phone, notProvided),
		FromZip:     lead.Or(l.FromZip, notProvided),
		ToZip:       lead.Or(l.ToZip, notProvided),
		MoveDate:    lead.Or(l.MoveDate, notProvided),
		MoveSize:    lead.Or(lead.MoveSizeLabel(l.MoveSize), notProvided),
		HasDiscount: hasDiscount,
		Discount:    lead.DiscountAmount,
		Support:     support,
		Year:        year,
	}
	if q != nil {
		qv := &quoteView{
			BasePrice:       formatMoney(q.BasePrice, q.Currency),
			PriceMultiplier: "×" + formatNumber(q.PriceMultiplier),
			Subtotal:        formatMoney(q.Subtotal, q.Currency),
			Tax:             formatMoney(q.Tax, q.Currency),
			TaxRate:         formatNumber(q.TaxRate*100) + "%",
			Total:           formatMoney(q.Total, q.Currency),
		}
		if q.EstimatedHours > 0 {
			qv.EstimatedHours = formatNumber(q.EstimatedHours) + " hrs"
		}
		v.Quote = qv
	}
	return v
}

// ─── WIDGET VIEWS ─────────────────────────────────────────────────────────────

type widgetView struct {
	Name           string
	Greeting       string
	Email          string
	Phone          string
	Contact        string
	EstimatedHours string
	Subtotal       string
	Tax            string
	Total          string
	LeadData       string
	Support        string
	Year           int
}

func newWidgetView(s WidgetSubmission, support string, year int) widgetView {
	q := gjson.ParseBytes(s.Quote)
	return widgetView{
		Name:           lead.Or(s.Name, notProvided),
		Greeting:       lead.Or(s.Name, "there"),
		Email:          lead.Or(s.Email, notProvided),
		Phone:          lead.Or(s.Phone, notProvided),
		Contact:        lead.Or(lead.Or(s.Phone, s.Email), notProvided),
		EstimatedHours: quoteField(q, "estimatedHours"),
		Subtotal:       quoteField(q, "subtotal"),
		Tax:            quoteField(q, "tax"),
		Total:          lead.Or(quoteField(q, "total"), notAvailable),
		LeadData:       prettyJSON(s.LeadData),
		Support:        support,
		Year:           year,
	}
}

// quoteField returns the field as the widget sent it, or "" when it is
// missing, zero, or empty.
func quoteField(q gjson.Result, name string) string {
	f := q.Get(name)
	switch f.Type {
	case gjson.Number:
		if f.Float() == 0 {
			return ""
		}
		return f.Raw
	case gjson.String:
		return f.String()
	}
	return ""
}

// prettyJSON indents raw with two spaces. Absent, null, and other falsy
// values render nothing.
func prettyJSON(raw json.RawMessage) string {
	r := gjson.ParseBytes(raw)
	switch {
	case len(raw) == 0, r.Type == gjson.Null, r.Type == gjson.False:
		return ""
	case r.Type == gjson.String && r.String() == "":
		return ""
	case r.Type == gjson.Number && r.Float() == 0:
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
