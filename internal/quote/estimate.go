package quote

import "strings"

// Request is the visitor's selection.
type Request struct {
	MoveSize string `json:"moveSize"`
	FromZip  string `json:"fromZip"`
	ToZip    string `json:"toZip"`
	MoveDate string `json:"moveDate"`
}

// Quote is the computed estimate. Amounts are unrounded.
type Quote struct {
	BasePrice       float64 `json:"basePrice"`
	EstimatedHours  float64 `json:"estimatedHours"`
	PriceMultiplier float64 `json:"priceMultiplier"`
	Subtotal        float64 `json:"subtotal"`
	Tax             float64 `json:"tax"`
	TaxRate         float64 `json:"taxRate"`
	Total           float64 `json:"total"`
	Currency        string  `json:"currency"`
	MinimumJobPrice float64 `json:"minimumJobPrice"`
	MoveSize        string  `json:"moveSize"`
	FromZip         string  `json:"fromZip"`
	ToZip           string  `json:"toZip"`
	MoveDate        string  `json:"moveDate"`
}

// Compute prices req against cfg.
//
// Every step is scanned. Within a step the first option whose title or value
// contains the move size (case-insensitively) is taken, and a later step's
// match overwrites an earlier one: the last matching step wins. A matched
// estimation value that is zero leaves the running value unchanged. With no
// match the minimum job price is charged at multiplier 1.
func Compute(cfg Config, req Request) Quote {
	basePrice := cfg.MinimumJobPrice
	estimatedHours := 0.0
	priceMultiplier := 1.0

	if needle := strings.ToLower(req.MoveSize); needle != "" {
		for _, step := range cfg.Steps {
			opt, ok := firstMatch(step.Options, needle)
			if !ok || opt.Estimation == nil {
				continue
			}
			basePrice = nonZero(opt.Estimation.BasePrice, basePrice)
			estimatedHours = nonZero(opt.Estimation.EstimatedHours, estimatedHours)
			priceMultiplier = nonZero(opt.Estimation.PriceMultiplier, priceMultiplier)
		}
	}

	subtotal := basePrice * priceMultiplier
	tax := subtotal * cfg.TaxRate

	return Quote{
		BasePrice:       basePrice,
		EstimatedHours:  estimatedHours,
		PriceMultiplier: priceMultiplier,
		Subtotal:        subtotal,
		Tax:             tax,
		TaxRate:         cfg.TaxRate,
		Total:           subtotal + tax,
		Currency:        cfg.Currency,
		MinimumJobPrice: cfg.MinimumJobPrice,
		MoveSize:        req.MoveSize,
		FromZip:         req.FromZip,
		ToZip:           req.ToZip,
		MoveDate:        req.MoveDate,
	}
}

func firstMatch(options []Option, needle string) (Option, bool) {
	for _, o := range options {
		if (o.Title != "" && strings.Contains(strings.ToLower(o.Title), needle)) ||
			(o.Value != "" && strings.Contains(strings.ToLower(o.Value), needle)) {
			return o, true
		}
	}
	return Option{}, false
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
