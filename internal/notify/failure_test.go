package notify_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyashahama/furniture-taxi-leads/internal/email"
	"github.com/nyashahama/furniture-taxi-leads/internal/notify"
)

type msgValue struct{ m string }

func (v msgValue) Message() string { return v.m }

func TestNormalize(t *testing.T) {
	apiErr := &email.APIError{Name: "rate_limit_exceeded", Message: "Too many requests", StatusCode: 429}

	tests := []struct {
		name     string
		in       any
		wantKind notify.FailureKind
		wantMsg  string
	}{
		{"plain string verbatim", "mailbox full", notify.KindStringError, "mailbox full"},
		{"error uses its message", errors.New("dial tcp: refused"), notify.KindStructuredError, "dial tcp: refused"},
		{"provider error uses provider message", apiErr, notify.KindStructuredError, "Too many requests"},
		{"wrapped provider error", fmt.Errorf("send: %w", apiErr), notify.KindStructuredError, "Too many requests"},
		{"value with Message method", msgValue{"quota exceeded"}, notify.KindStructuredError, "quota exceeded"},
		{"map with message field", map[string]any{"message": "bad sender", "code": 7}, notify.KindStructuredError, "bad sender"},
		{"map without message is encoded", map[string]any{"code": 7}, notify.KindUnknownError, `{"code":7}`},
		{"nil falls back", nil, notify.KindUnknownError, notify.GenericFailureMessage},
		{"empty object falls back", map[string]any{}, notify.KindUnknownError, notify.GenericFailureMessage},
		{"unencodable falls back", func() {}, notify.KindUnknownError, notify.GenericFailureMessage},
		{"empty Message method falls back", msgValue{}, notify.KindUnknownError, notify.GenericFailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f notify.Failure
			assert.NotPanics(t, func() { f = notify.Normalize(tt.in) })
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantMsg, f.Message)
		})
	}
}

func TestNormalize_KeepsCause(t *testing.T) {
	cause := errors.New("boom")
	f := notify.Normalize(cause)
	assert.ErrorIs(t, &f, cause)
}
