package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultResendEndpoint is the Resend send-email URL.
const DefaultResendEndpoint = "https://api.resend.com/emails"

// ErrNoRecipients is returned when a Message has no To addresses.
var ErrNoRecipients = errors.New("email: message has no recipients")

// ResendClient is the concrete Sender backed by the Resend API.
type ResendClient struct {
	apiKey     string
	fromAddr   string // e.g. "quotes@furnituretaxi.com"
	fromName   string // e.g. "Furniture Taxi"
	endpoint   string
	httpClient *http.Client
}

// ResendOption customises a ResendClient.
type ResendOption func(*ResendClient)

// WithEndpoint points the client at another URL, e.g. an httptest server.
func WithEndpoint(url string) ResendOption {
	return func(c *ResendClient) { c.endpoint = url }
}

// WithHTTPClient replaces the default 15s-timeout client.
func WithHTTPClient(hc *http.Client) ResendOption {
	return func(c *ResendClient) { c.httpClient = hc }
}

// NewResendClient returns a Sender that delivers email via Resend.
func NewResendClient(apiKey, fromAddr, fromName string, opts ...ResendOption) *ResendClient {
	c := &ResendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		endpoint: DefaultResendEndpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultFrom is the sender identity used when Message.From is empty.
func (c *ResendClient) DefaultFrom() string {
	if c.fromName == "" {
		return c.fromAddr
	}
	return fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// resendResponse covers both the success body {"id"} and the flat error body
// {"name","message","statusCode"}. Older responses nest the error under
// "error".
type resendResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode"`
	Error      *APIError `json:"error"`
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

// Send delivers msg in a single attempt.
func (c *ResendClient) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}
	from := msg.From
	if from == "" {
		from = c.DefaultFrom()
	}

	bodyBytes, err := json.Marshal(resendRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("%.200s", string(respBytes))}
		}
		return "", fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		if parsed.Error.StatusCode == 0 {
			parsed.Error.StatusCode = resp.StatusCode
		}
		return "", parsed.Error
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status := parsed.StatusCode
		if status == 0 {
			status = resp.StatusCode
		}
		return "", &APIError{Name: parsed.Name, Message: parsed.Message, StatusCode: status}
	}

	if parsed.ID == "" {
		return "", fmt.Errorf("email: response (status %d) carried no message id", resp.StatusCode)
	}
	return parsed.ID, nil
}
