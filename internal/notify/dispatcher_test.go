package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/furniture-taxi-leads/internal/email"
	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
	"github.com/nyashahama/furniture-taxi-leads/internal/notify"
	"github.com/nyashahama/furniture-taxi-leads/internal/quote"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubSender records messages and fails or panics for chosen recipients.
type stubSender struct {
	mu     sync.Mutex
	sent   []email.Message
	fail   map[string]any // recipient address -> error value or panic value
	panics map[string]bool
}

func (s *stubSender) Send(_ context.Context, msg email.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	to := msg.To[0]
	if v, ok := s.fail[to]; ok {
		if s.panics[to] {
			panic(v)
		}
		return "", v.(error)
	}
	s.sent = append(s.sent, msg)
	return fmt.Sprintf("msg_%d", len(s.sent)), nil
}

func (s *stubSender) byRecipient(to string) (email.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.sent {
		if m.To[0] == to {
			return m, true
		}
	}
	return email.Message{}, false
}

const adminAddr = "admin@furnituretaxi.test"

func newDispatcher(s *stubSender) *notify.Dispatcher {
	return notify.NewDispatcher(s, notify.Config{AdminEmail: adminAddr},
		nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleLead() lead.Lead {
	return lead.Lead{
		Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555-0100",
		FromZip: "90210", ToZip: "10001", MoveDate: "2026-11-02", MoveSize: "2-bedroom",
	}
}

// ─── LEAD NOTIFICATIONS ───────────────────────────────────────────────────────

func TestSendLead_BothMessages(t *testing.T) {
	s := &stubSender{}
	res, err := newDispatcher(s).SendLeadNotifications(context.Background(), sampleLead(), nil, false)
	require.NoError(t, err)

	assert.NotEmpty(t, res.AdminMessageID)
	require.NotNil(t, res.CustomerMessageID)
	assert.NotEqual(t, res.AdminMessageID, *res.CustomerMessageID)

	admin, ok := s.byRecipient(adminAddr)
	require.True(t, ok)
	assert.Equal(t, "New Moving Request from Ada Lovelace", admin.Subject)
	assert.Contains(t, admin.HTML, "90210")
	assert.Contains(t, admin.HTML, "2 Bedroom")
	assert.NotContains(t, admin.HTML, "USD OFF")

	customer, ok := s.byRecipient("ada@example.com")
	require.True(t, ok)
	assert.Equal(t, "Your Moving Request Confirmation - Furniture Taxi", customer.Subject)
	assert.Contains(t, customer.HTML, "Hi <strong>Ada Lovelace</strong>")
}

func TestSendLead_NoEmailSkipsCustomer(t *testing.T) {
	s := &stubSender{}
	l := sampleLead()
	l.Email = ""

	res, err := newDispatcher(s).SendLeadNotifications(context.Background(), l, nil, false)
	require.NoError(t, err)

	assert.NotEmpty(t, res.AdminMessageID)
	assert.Nil(t, res.CustomerMessageID)
	assert.Len(t, s.sent, 1)
}

func TestSendLead_DiscountBanner(t *testing.T) {
	s := &stubSender{}
	_, err := newDispatcher(s).SendLeadNotifications(context.Background(), sampleLead(), nil, true)
	require.NoError(t, err)

	admin, _ := s.byRecipient(adminAddr)
	customer, _ := s.byRecipient("ada@example.com")
	assert.Contains(t, admin.HTML, "$50 USD OFF")
	assert.Contains(t, customer.HTML, "$50 USD OFF")
}

func TestSendLead_MissingFieldsRenderNotProvided(t *testing.T) {
	s := &stubSender{}
	_, err := newDispatcher(s).SendLeadNotifications(context.Background(), lead.Lead{Name: "Ada"}, nil, false)
	require.NoError(t, err)

	admin, _ := s.byRecipient(adminAddr)
	assert.Contains(t, admin.HTML, "Not provided")
}

func TestSendLead_QuoteBlock(t *testing.T) {
	s := &stubSender{}
	q := &quote.Quote{BasePrice: 200, PriceMultiplier: 1, Subtotal: 200, Tax: 16, TaxRate: 0.08, Total: 216, Currency: "USD"}

	_, err := newDispatcher(s).SendLeadNotifications(context.Background(), sampleLead(), q, false)
	require.NoError(t, err)

	admin, _ := s.byRecipient(adminAddr)
	assert.Contains(t, admin.HTML, "Total: $216.00")
	assert.Contains(t, admin.HTML, "Tax (8%)")
	customer, _ := s.byRecipient("ada@example.com")
	assert.Contains(t, customer.HTML, "$216.00")
}

func TestSendLead_UntrustedFieldsAreEscaped(t *testing.T) {
	s := &stubSender{}
	l := sampleLead()
	l.Name = `<script>alert(1)</script>`

	_, err := newDispatcher(s).SendLeadNotifications(context.Background(), l, nil, false)
	require.NoError(t, err)

	admin, _ := s.byRecipient(adminAddr)
	assert.NotContains(t, admin.HTML, "<script>")
	assert.Contains(t, admin.HTML, "&lt;script&gt;")
}

func TestSendLead_CustomerFailureKeepsAdmin(t *testing.T) {
	s := &stubSender{fail: map[string]any{"ada@example.com": &email.APIError{Name: "validation_error", Message: "Invalid to field.", StatusCode: 422}}}

	res, err := newDispatcher(s).SendLeadNotifications(context.Background(), sampleLead(), nil, false)
	require.Error(t, err)

	assert.NotEmpty(t, res.AdminMessageID, "admin send is not rolled back")
	assert.Nil(t, res.CustomerMessageID)

	var f *notify.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, notify.KindStructuredError, f.Kind)
	assert.Equal(t, "Invalid to field.", f.Message)
	assert.Equal(t, "customer", f.Recipient)
}

func TestSendLead_AdminFailureTakesPrecedence(t *testing.T) {
	s := &stubSender{fail: map[string]any{
		adminAddr:         errors.New("admin mailbox down"),
		"ada@example.com": errors.New("customer mailbox down"),
	}}

	_, err := newDispatcher(s).SendLeadNotifications(context.Background(), sampleLead(), nil, false)

	var f *notify.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "admin", f.Recipient)
	assert.Equal(t, "admin mailbox down", f.Message)
}

func TestSendLead_AdminFailureStillSendsCustomer(t *testing.T) {
	s := &stubSender{fail: map[string]any{adminAddr: errors.New("down")}}

	res, err := newDispatcher(s).SendLeadNotifications(context.Background(), sampleLead(), nil, false)
	require.Error(t, err)
	require.NotNil(t, res.CustomerMessageID)
}

func TestSendLead_PanickingSenderIsNormalized(t *testing.T) {
	s := &stubSender{
		fail:   map[string]any{adminAddr: "smtp exploded"},
		panics: map[string]bool{adminAddr: true},
	}

	var err error
	assert.NotPanics(t, func() {
		_, err = newDispatcher(s).SendLeadNotifications(context.Background(), sampleLead(), nil, false)
	})

	var f *notify.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, notify.KindStringError, f.Kind)
	assert.Equal(t, "smtp exploded", f.Message)
}

// ─── WIDGET NOTIFICATIONS ─────────────────────────────────────────────────────

func TestSendQuote_RendersWidgetFigures(t *testing.T) {
	s := &stubSender{}
	sub := notify.WidgetSubmission{
		Name:     "Grace",
		Email:    "grace@example.com",
		Quote:    json.RawMessage(`{"total": 432.5, "subtotal": 400, "tax": 0, "estimatedHours": 4}`),
		LeadData: json.RawMessage(`{"rooms":3,"stairs":true}`),
	}

	res, err := newDispatcher(s).SendQuoteNotifications(context.Background(), sub)
	require.NoError(t, err)
	require.NotNil(t, res.CustomerMessageID)

	admin, _ := s.byRecipient(adminAddr)
	assert.Equal(t, "New Quote Request from Grace - $432.5", admin.Subject)
	assert.Contains(t, admin.HTML, "4 hrs")
	assert.Contains(t, admin.HTML, "$400")
	assert.NotContains(t, admin.HTML, "Tax:", "zero tax is omitted")
	assert.Contains(t, admin.HTML, "&#34;rooms&#34;: 3", "leadData is pretty printed and escaped")

	customer, _ := s.byRecipient("grace@example.com")
	assert.Equal(t, "Your Moving Quote from The Furniture Taxi", customer.Subject)
	assert.Contains(t, customer.HTML, "$432.5 USD")
	assert.Contains(t, customer.HTML, "<strong>grace@example.com</strong> within 24 hours", "contact falls back to email")
}

func TestSendQuote_AbsentQuoteShowsNA(t *testing.T) {
	s := &stubSender{}

	res, err := newDispatcher(s).SendQuoteNotifications(context.Background(), notify.WidgetSubmission{})
	require.NoError(t, err)
	assert.Nil(t, res.CustomerMessageID)

	admin, _ := s.byRecipient(adminAddr)
	assert.Equal(t, "New Quote Request from Customer - $N/A", admin.Subject)
	assert.Contains(t, admin.HTML, "Total: $N/A")
	assert.NotContains(t, admin.HTML, "Additional Details")
	assert.True(t, strings.Contains(admin.HTML, "Not provided"))
}
