package notify

import (
	"encoding/json"
	"errors"

	"github.com/nyashahama/furniture-taxi-leads/internal/email"
)

// GenericFailureMessage is reported when nothing readable can be extracted
// from a failure.
const GenericFailureMessage = "Failed to send notification email"

// FailureKind tags how a failure message was obtained.
type FailureKind string

const (
	KindStringError     FailureKind = "string-error"
	KindStructuredError FailureKind = "structured-error"
	KindUnknownError    FailureKind = "unknown-error"
)

// Failure is the single structured error a dispatch returns.
type Failure struct {
	Kind    FailureKind
	Message string
	// Recipient is "admin" or "customer".
	Recipient string
	cause     error
}

func (f *Failure) Error() string { return f.Message }

// Unwrap exposes the underlying error when the failure came from one.
func (f *Failure) Unwrap() error { return f.cause }

// messager matches values that carry their own human-readable message.
type messager interface {
	Message() string
}

// Normalize maps any failure value (an error, a recovered panic value, a
// decoded provider body) to a Failure. Strings are used verbatim; values that
// carry a message yield that message; other non-empty values are JSON
// encoded; everything else gets GenericFailureMessage.
func Normalize(v any) Failure {
	switch x := v.(type) {
	case nil:
		return Failure{Kind: KindUnknownError, Message: GenericFailureMessage}

	case string:
		return Failure{Kind: KindStringError, Message: x}

	case *Failure:
		return *x

	case error:
		var apiErr *email.APIError
		if errors.As(x, &apiErr) && apiErr.Message != "" {
			return Failure{Kind: KindStructuredError, Message: apiErr.Message, cause: x}
		}
		if m, ok := x.(messager); ok && m.Message() != "" {
			return Failure{Kind: KindStructuredError, Message: m.Message(), cause: x}
		}
		if msg := x.Error(); msg != "" {
			return Failure{Kind: KindStructuredError, Message: msg, cause: x}
		}
		return Failure{Kind: KindUnknownError, Message: GenericFailureMessage, cause: x}

	case messager:
		if msg := x.Message(); msg != "" {
			return Failure{Kind: KindStructuredError, Message: msg}
		}

	case map[string]any:
		if msg, ok := x["message"].(string); ok {
			return Failure{Kind: KindStructuredError, Message: msg}
		}
	}

	if b, err := json.Marshal(v); err == nil && !isEmptyJSON(b) {
		return Failure{Kind: KindUnknownError, Message: string(b)}
	}
	return Failure{Kind: KindUnknownError, Message: GenericFailureMessage}
}

func isEmptyJSON(b []byte) bool {
	switch string(b) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}
