// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import (
	"context"
	"fmt"
)

// Message is one outbound email. An empty From uses the sender's default
// "Name <addr>" identity.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender is the interface the notification dispatcher uses to send email.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	// Send delivers msg and returns the provider's message ID.
	Send(ctx context.Context, msg Message) (string, error)
}

// APIError is the error envelope returned by the provider.
//
// Wire shape:
//
//	{"name": "validation_error", "message": "Invalid `to` field.", "statusCode": 422}
type APIError struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func (e *APIError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("email: provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("email: provider error %s (status %d): %s", e.Name, e.StatusCode, e.Message)
}
