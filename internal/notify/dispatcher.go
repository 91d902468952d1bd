// Package notify renders and sends the two transactional emails that follow a
// lead: one to the business, and a confirmation to the customer.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nyashahama/furniture-taxi-leads/internal/email"
	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
	"github.com/nyashahama/furniture-taxi-leads/internal/metrics"
	"github.com/nyashahama/furniture-taxi-leads/internal/quote"
)

const (
	recipientAdmin    = "admin"
	recipientCustomer = "customer"
)

// Config holds the addresses the dispatcher needs.
type Config struct {
	// AdminEmail receives every lead.
	AdminEmail string
	// From overrides the sender's default identity when non-empty.
	From string
	// SupportEmail is printed in customer email footers.
	SupportEmail string
}

// Result holds the provider IDs of the messages that were sent. A nil
// CustomerMessageID means no customer message was sent.
type Result struct {
	AdminMessageID    string  `json:"adminEmailId,omitempty"`
	CustomerMessageID *string `json:"customerEmailId"`
}

// WidgetSubmission is the payload posted by the quote widget. Quote and
// LeadData are kept raw: the widget owns their shape.
type WidgetSubmission struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Quote    json.RawMessage `json:"quote"`
	LeadData json.RawMessage `json:"leadData"`
}

// Dispatcher sends lead notifications. Each call makes one attempt per
// message; there is no retry.
type Dispatcher struct {
	sender  email.Sender
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewDispatcher wires a Dispatcher. m may be nil.
func NewDispatcher(sender email.Sender, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if cfg.SupportEmail == "" {
		cfg.SupportEmail = "service@furnituretaxi.site"
	}
	return &Dispatcher{
		sender:  sender,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SendLeadNotifications emails the admin about l and, when l carries an email
// address, sends the customer a confirmation. q may be nil.
func (d *Dispatcher) SendLeadNotifications(ctx context.Context, l lead.Lead, q *quote.Quote, hasDiscount bool) (Result, error) {
	view := newLeadView(l, q, hasDiscount, d.cfg.SupportEmail, d.now().Year())

	admin := func() (email.Message, error) {
		html, err := render(tmplLeadAdmin, view)
		return email.Message{
			To:      []string{d.cfg.AdminEmail},
			Subject: fmt.Sprintf("New Moving Request from %s", lead.Or(l.Name, "Customer")),
			HTML:    html,
		}, err
	}

	var customer func() (email.Message, error)
	if to := strings.TrimSpace(l.Email); to != "" {
		customer = func() (email.Message, error) {
			html, err := render(tmplLeadCustomer, view)
			return email.Message{
				To:      []string{to},
				Subject: "Your Moving Request Confirmation - Furniture Taxi",
				HTML:    html,
			}, err
		}
	}

	return d.dispatch(ctx, admin, customer)
}

// SendQuoteNotifications is the widget variant: the emails show the widget's
// own quote figures and the raw lead data.
func (d *Dispatcher) SendQuoteNotifications(ctx context.Context, s WidgetSubmission) (Result, error) {
	view := newWidgetView(s, d.cfg.SupportEmail, d.now().Year())

	admin := func() (email.Message, error) {
		html, err := render(tmplQuoteAdmin, view)
		return email.Message{
			To:      []string{d.cfg.AdminEmail},
			Subject: fmt.Sprintf("New Quote Request from %s - $%s", lead.Or(s.Name, "Customer"), view.Total),
			HTML:    html,
		}, err
	}

	var customer func() (email.Message, error)
	if to := strings.TrimSpace(s.Email); to != "" {
		customer = func() (email.Message, error) {
			html, err := render(tmplQuoteCustomer, view)
			return email.Message{
				To:      []string{to},
				Subject: "Your Moving Quote from The Furniture Taxi",
				HTML:    html,
			}, err
		}
	}

	return d.dispatch(ctx, admin, customer)
}

// dispatch runs both sends independently and waits for them. Neither send
// cancels the other. When both fail the admin failure is returned.
func (d *Dispatcher) dispatch(ctx context.Context, admin, customer func() (email.Message, error)) (Result, error) {
	var (
		g                     errgroup.Group
		res                   Result
		adminErr, customerErr *Failure
	)

	g.Go(func() error {
		res.AdminMessageID, adminErr = d.sendOne(ctx, recipientAdmin, admin)
		return nil
	})
	if customer != nil {
		g.Go(func() error {
			id, err := d.sendOne(ctx, recipientCustomer, customer)
			if err == nil {
				res.CustomerMessageID = &id
			}
			customerErr = err
			return nil
		})
	}
	_ = g.Wait()

	switch {
	case adminErr != nil:
		return res, adminErr
	case customerErr != nil:
		return res, customerErr
	}
	return res, nil
}

// sendOne builds and sends one message. Errors and panics come back as a
// normalized *Failure.
func (d *Dispatcher) sendOne(ctx context.Context, recipient string, build func() (email.Message, error)) (id string, fail *Failure) {
	defer func() {
		if r := recover(); r != nil {
			f := Normalize(r)
			f.Recipient = recipient
			d.logger.Error("notify: send panicked",
				"recipient", recipient,
				"panic", fmt.Sprint(r),
			)
			d.metrics.ObserveEmail(recipient, "failed")
			id, fail = "", &f
		}
	}()

	msg, err := build()
	if err == nil {
		msg.From = d.cfg.From
		id, err = d.sender.Send(ctx, msg)
	}
	if err != nil {
		f := Normalize(err)
		f.Recipient = recipient
		d.logger.Error("notify: send failed",
			"recipient", recipient,
			"kind", string(f.Kind),
			"error", err,
		)
		d.metrics.ObserveEmail(recipient, "failed")
		return "", &f
	}

	d.logger.Info("notify: email sent", "recipient", recipient, "message_id", id)
	d.metrics.ObserveEmail(recipient, "sent")
	return id, nil
}
