// Package quote computes a move price estimate from the pricing configuration
// published by the quote widget service. Parsing and arithmetic are pure; only
// Client touches the network.
package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

// Defaults applied when estimation_settings omits a value.
const (
	DefaultTaxRate         = 0.08
	DefaultMinimumJobPrice = 200.0
	DefaultCurrency        = "USD"
)

// ErrMalformedConfig is returned by ParseConfig for bodies that are not a JSON
// object.
var ErrMalformedConfig = errors.New("quote: malformed pricing config")

// Estimation is the pricing block attached to an option. A zero field means
// the option did not supply a usable value.
type Estimation struct {
	BasePrice       float64
	EstimatedHours  float64
	PriceMultiplier float64
}

// Option is one selectable answer within a step.
type Option struct {
	Title      string
	Value      string
	Estimation *Estimation
}

// Step is one entry of steps_data, in scan order.
type Step struct {
	Key     string
	Options []Option
}

// Config is the parsed pricing configuration.
//
// Upstream JSON shape (only the fields read here):
//
//	{
//	  "estimation_settings": {"tax_rate": 0.08, "minimum_job_price": 200, "currency": "USD"},
//	  "steps_data": {
//	    "1": {"options": [{"title": "Studio", "value": "studio",
//	                       "estimation": {"base_price": 100, "estimated_hours": 2, "price_multiplier": 1}}]}
//	  }
//	}
type Config struct {
	TaxRate         float64
	MinimumJobPrice float64
	Currency        string
	Steps           []Step

	// Raw is the upstream body, served verbatim by GET /quote-config.
	Raw json.RawMessage
}

// ParseConfig reads a pricing configuration. Settings missing from
// estimation_settings take the package defaults; an explicit zero is kept.
// Steps are ordered the way a JavaScript for-in loop visits them: integer
// keys ascending, then the remaining keys in document order.
func ParseConfig(raw []byte) (Config, error) {
	if !gjson.ValidBytes(raw) {
		return Config{}, fmt.Errorf("%w: invalid JSON", ErrMalformedConfig)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Config{}, fmt.Errorf("%w: expected object, got %s", ErrMalformedConfig, root.Type)
	}

	settings := root.Get("estimation_settings")
	cfg := Config{
		TaxRate:         numberOr(settings.Get("tax_rate"), DefaultTaxRate),
		MinimumJobPrice: numberOr(settings.Get("minimum_job_price"), DefaultMinimumJobPrice),
		Currency:        DefaultCurrency,
		Raw:             append(json.RawMessage(nil), raw...),
	}
	if c := settings.Get("currency"); c.Type == gjson.String {
		cfg.Currency = c.String()
	}

	cfg.Steps = parseSteps(root.Get("steps_data"))
	return cfg, nil
}

func parseSteps(steps gjson.Result) []Step {
	if !steps.IsObject() && !steps.IsArray() {
		return nil
	}

	var indexed, named []Step
	i := 0
	steps.ForEach(func(key, value gjson.Result) bool {
		step := Step{Key: key.String(), Options: parseOptions(value.Get("options"))}
		if steps.IsArray() {
			// ForEach passes no key for array elements.
			step.Key = strconv.Itoa(i)
		}
		i++
		if isArrayIndex(step.Key) {
			indexed = append(indexed, step)
		} else {
			named = append(named, step)
		}
		return true
	})

	sort.SliceStable(indexed, func(i, j int) bool {
		a, _ := strconv.ParseUint(indexed[i].Key, 10, 32)
		b, _ := strconv.ParseUint(indexed[j].Key, 10, 32)
		return a < b
	})
	return append(indexed, named...)
}

func parseOptions(options gjson.Result) []Option {
	if !options.IsArray() {
		return nil
	}
	var out []Option
	options.ForEach(func(_, o gjson.Result) bool {
		opt := Option{
			Title: stringField(o.Get("title")),
			Value: stringField(o.Get("value")),
		}
		if est := o.Get("estimation"); est.IsObject() {
			opt.Estimation = &Estimation{
				BasePrice:       numberOr(est.Get("base_price"), 0),
				EstimatedHours:  numberOr(est.Get("estimated_hours"), 0),
				PriceMultiplier: numberOr(est.Get("price_multiplier"), 0),
			}
		}
		out = append(out, opt)
		return true
	})
	return out
}

// isArrayIndex reports whether key is a canonical array index, which is what
// makes JavaScript enumerate it ahead of other keys.
func isArrayIndex(key string) bool {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	return err == nil && n < 1<<32-1
}

func numberOr(r gjson.Result, fallback float64) float64 {
	if r.Type == gjson.Number {
		return r.Float()
	}
	return fallback
}

func stringField(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.String()
	}
	return ""
}
