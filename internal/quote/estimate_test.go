package quote_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/furniture-taxi-leads/internal/quote"
)

func mustParse(t *testing.T, raw string) quote.Config {
	t.Helper()
	cfg, err := quote.ParseConfig([]byte(raw))
	require.NoError(t, err)
	return cfg
}

// ─── ParseConfig ──────────────────────────────────────────────────────────────

func TestParseConfig_DefaultsWhenSettingsAbsent(t *testing.T) {
	cfg := mustParse(t, `{"steps_data": {}}`)

	assert.Equal(t, quote.DefaultTaxRate, cfg.TaxRate)
	assert.Equal(t, quote.DefaultMinimumJobPrice, cfg.MinimumJobPrice)
	assert.Equal(t, quote.DefaultCurrency, cfg.Currency)
	assert.JSONEq(t, `{"steps_data": {}}`, string(cfg.Raw))
}

func TestParseConfig_ExplicitZeroTaxRateIsKept(t *testing.T) {
	cfg := mustParse(t, `{"estimation_settings": {"tax_rate": 0, "minimum_job_price": 150, "currency": "CAD"}}`)

	assert.Equal(t, 0.0, cfg.TaxRate)
	assert.Equal(t, 150.0, cfg.MinimumJobPrice)
	assert.Equal(t, "CAD", cfg.Currency)
}

func TestParseConfig_RejectsNonObject(t *testing.T) {
	for _, raw := range []string{``, `not json`, `[1,2]`, `"str"`} {
		_, err := quote.ParseConfig([]byte(raw))
		assert.ErrorIs(t, err, quote.ErrMalformedConfig, "raw=%q", raw)
	}
}

func TestParseConfig_StepsFollowJavaScriptPropertyOrder(t *testing.T) {
	cfg := mustParse(t, `{"steps_data": {
		"b":  {"options": []},
		"10": {"options": []},
		"a":  {"options": []},
		"2":  {"options": []},
		"01": {"options": []}
	}}`)

	var keys []string
	for _, s := range cfg.Steps {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"2", "10", "b", "a", "01"}, keys)
}

func TestParseConfig_IgnoresMalformedOptions(t *testing.T) {
	cfg := mustParse(t, `{"steps_data": {
		"1": {"options": "nope"},
		"2": {"options": [{"title": 7, "value": "studio", "estimation": "x"}]}
	}}`)

	require.Len(t, cfg.Steps, 2)
	assert.Empty(t, cfg.Steps[0].Options)
	require.Len(t, cfg.Steps[1].Options, 1)
	assert.Equal(t, "", cfg.Steps[1].Options[0].Title)
	assert.Nil(t, cfg.Steps[1].Options[0].Estimation)
}

// ─── Compute ──────────────────────────────────────────────────────────────────

const sizesConfig = `{
	"estimation_settings": {"tax_rate": 0.08, "minimum_job_price": 200, "currency": "USD"},
	"steps_data": {
		"1": {"options": [
			{"title": "Studio", "value": "studio", "estimation": {"base_price": 100, "estimated_hours": 2, "price_multiplier": 1}},
			{"title": "2 Bedroom", "value": "2-bedroom", "estimation": {"base_price": 300, "estimated_hours": 5, "price_multiplier": 1.5}}
		]}
	}
}`

func TestCompute_SingleMatch(t *testing.T) {
	q := quote.Compute(mustParse(t, sizesConfig), quote.Request{MoveSize: "studio", FromZip: "90210", ToZip: "10001", MoveDate: "2026-11-02"})

	assert.Equal(t, 100.0, q.BasePrice)
	assert.Equal(t, 2.0, q.EstimatedHours)
	assert.Equal(t, 1.0, q.PriceMultiplier)
	assert.InDelta(t, 108.0, q.Total, 1e-9)
	assert.Equal(t, "90210", q.FromZip)
	assert.Equal(t, "10001", q.ToZip)
	assert.Equal(t, "2026-11-02", q.MoveDate)
	assert.Equal(t, "studio", q.MoveSize)
}

func TestCompute_MatchIsCaseInsensitiveSubstring(t *testing.T) {
	q := quote.Compute(mustParse(t, sizesConfig), quote.Request{MoveSize: "BEDROOM"})

	assert.Equal(t, 300.0, q.BasePrice)
	assert.InDelta(t, 450.0, q.Subtotal, 1e-9)
}

// Last-match-wins across steps is kept on purpose. It may be an upstream
// quirk (first-match could be what was meant); this test pins the behavior so
// any change is deliberate.
func TestCompute_LastMatchingStepWins(t *testing.T) {
	cfg := mustParse(t, `{"steps_data": {
		"1": {"options": [{"value": "2-bedroom", "estimation": {"base_price": 300, "estimated_hours": 5, "price_multiplier": 1}}]},
		"2": {"options": [{"title": "2-Bedroom Apartment", "estimation": {"base_price": 450, "estimated_hours": 6, "price_multiplier": 1.2}}]}
	}}`)

	q := quote.Compute(cfg, quote.Request{MoveSize: "2-bedroom"})
	assert.Equal(t, 450.0, q.BasePrice)
	assert.Equal(t, 6.0, q.EstimatedHours)
	assert.Equal(t, 1.2, q.PriceMultiplier)
}

func TestCompute_FirstMatchWithinAStep(t *testing.T) {
	cfg := mustParse(t, `{"steps_data": {
		"1": {"options": [
			{"value": "office-small", "estimation": {"base_price": 250}},
			{"value": "office-large", "estimation": {"base_price": 900}}
		]}
	}}`)

	q := quote.Compute(cfg, quote.Request{MoveSize: "office"})
	assert.Equal(t, 250.0, q.BasePrice)
}

func TestCompute_ScanOrderIsIntegerKeysFirst(t *testing.T) {
	// Document order would make "2" last; property order makes "final" last.
	cfg := mustParse(t, `{"steps_data": {
		"final": {"options": [{"value": "studio", "estimation": {"base_price": 700}}]},
		"10":    {"options": [{"value": "studio", "estimation": {"base_price": 500}}]},
		"2":     {"options": [{"value": "studio", "estimation": {"base_price": 300}}]}
	}}`)

	q := quote.Compute(cfg, quote.Request{MoveSize: "studio"})
	assert.Equal(t, 700.0, q.BasePrice)
}

func TestCompute_ZeroEstimationValuesKeepRunningValues(t *testing.T) {
	cfg := mustParse(t, `{"steps_data": {
		"1": {"options": [{"value": "studio", "estimation": {"base_price": 120, "estimated_hours": 3, "price_multiplier": 2}}]},
		"2": {"options": [{"value": "studio", "estimation": {"base_price": 0, "estimated_hours": 4}}]}
	}}`)

	q := quote.Compute(cfg, quote.Request{MoveSize: "studio"})
	assert.Equal(t, 120.0, q.BasePrice)
	assert.Equal(t, 4.0, q.EstimatedHours)
	assert.Equal(t, 2.0, q.PriceMultiplier)
}

func TestCompute_MatchWithoutEstimationDoesNotOverwrite(t *testing.T) {
	cfg := mustParse(t, `{"steps_data": {
		"1": {"options": [{"value": "studio", "estimation": {"base_price": 120}}]},
		"2": {"options": [{"value": "studio"}]}
	}}`)

	q := quote.Compute(cfg, quote.Request{MoveSize: "studio"})
	assert.Equal(t, 120.0, q.BasePrice)
}

func TestCompute_NoMatchFallsBackToMinimum(t *testing.T) {
	tests := []struct {
		name     string
		moveSize string
	}{
		{"unknown size", "castle"},
		// The browser widget treats "" as a substring of every option; here
		// an empty size deliberately matches nothing.
		{"empty size", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := quote.Compute(mustParse(t, sizesConfig), quote.Request{MoveSize: tt.moveSize})

			assert.Equal(t, 200.0, q.BasePrice)
			assert.Equal(t, 0.0, q.EstimatedHours)
			assert.Equal(t, 1.0, q.PriceMultiplier)
			assert.Equal(t, 200.0, q.MinimumJobPrice)
		})
	}
}

func TestCompute_Arithmetic(t *testing.T) {
	q := quote.Compute(mustParse(t, `{"estimation_settings": {"tax_rate": 0.08, "minimum_job_price": 200}}`), quote.Request{})

	assert.Equal(t, 200.0, q.Subtotal)
	assert.InDelta(t, 16.0, q.Tax, 1e-9)
	assert.InDelta(t, 216.0, q.Total, 1e-9)
	assert.Equal(t, 0.08, q.TaxRate)
	assert.Equal(t, "USD", q.Currency)
}
