package lead_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
)

func validLead() lead.Lead {
	return lead.Lead{
		Name:     "Ada",
		Email:    "ada@example.com",
		Phone:    "(555) 123-4567",
		FromZip:  "90210",
		ToZip:    "10001",
		MoveDate: "2026-11-02",
		MoveSize: "studio",
	}
}

func TestValidate_AcceptsCompleteLead(t *testing.T) {
	require.NoError(t, validLead().Validate())
}

func TestValidate_ReportsEveryMissingField(t *testing.T) {
	err := lead.Lead{}.Validate()

	var verr *lead.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 7)
	for _, f := range []string{"name", "email", "phone", "fromZip", "toZip", "moveDate", "moveSize"} {
		assert.True(t, verr.Has(f), "expected %s to be reported", f)
	}
}

func TestValidate_ZipMustBeFiveDigits(t *testing.T) {
	tests := []struct {
		zip  string
		want bool
	}{
		{"12345", true},
		{"1234", false},
		{"123456", false},
		{"12a45", false},
		{" 12345", false},
	}
	for _, tt := range tests {
		t.Run(tt.zip, func(t *testing.T) {
			l := validLead()
			l.ToZip = tt.zip
			err := l.Validate()
			if tt.want {
				assert.NoError(t, err)
				return
			}
			var verr *lead.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.True(t, verr.Has("toZip"))
			assert.False(t, verr.Has("fromZip"))
		})
	}
}

func TestNormalize_TrimsBeforeValidation(t *testing.T) {
	l := validLead()
	l.FromZip = " 90210 "
	l.Name = "  Ada  "

	n := l.Normalize()
	assert.Equal(t, "90210", n.FromZip)
	assert.Equal(t, "Ada", n.Name)
	assert.NoError(t, n.Validate())
}

func TestAllFilled(t *testing.T) {
	assert.True(t, validLead().AllFilled())

	l := validLead()
	l.MoveDate = "   "
	assert.False(t, l.AllFilled())
}

func TestSnapshot_UsesJSONFieldNames(t *testing.T) {
	s := validLead().Snapshot()
	assert.Equal(t, "90210", s["fromZip"])
	assert.Equal(t, "studio", s["moveSize"])
	assert.Len(t, s, 7)
}

func TestOr(t *testing.T) {
	assert.Equal(t, "Not provided", lead.Or("", "Not provided"))
	assert.Equal(t, "Not provided", lead.Or("  ", "Not provided"))
	assert.Equal(t, "Ada", lead.Or("Ada", "Not provided"))
}

func TestMoveSizeLabel(t *testing.T) {
	assert.Equal(t, "4+ Bedroom", lead.MoveSizeLabel("4-bedroom"))
	assert.Equal(t, "Storage Unit", lead.MoveSizeLabel("storage"))
	assert.Equal(t, "castle", lead.MoveSizeLabel("castle"))
}
