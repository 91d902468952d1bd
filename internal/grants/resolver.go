// Package grants resolves the opaque code carried in a shared link to the
// discount or referral grant it identifies, and the contact details used to
// pre-fill the request form.
package grants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nyashahama/furniture-taxi-leads/internal/db"
	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
	"github.com/nyashahama/furniture-taxi-leads/internal/metrics"
)

// Kind says which table, if any, a code was found in.
type Kind string

const (
	KindDiscount Kind = "discount"
	KindReferral Kind = "referral"
	KindNotFound Kind = "not_found"
)

// ErrLookupUnavailable is returned when neither table could be queried. It is
// distinct from a not_found result.
var ErrLookupUnavailable = errors.New("grants: lookup service unavailable")

// Result is the outcome of resolving a code.
type Result struct {
	Kind  Kind
	Code  string
	Name  string
	Email string
	Phone string
}

// Found reports whether the code matched a grant.
func (r Result) Found() bool {
	return r.Kind == KindDiscount || r.Kind == KindReferral
}

// Message is the notice shown to the visitor.
func (r Result) Message() string {
	switch r.Kind {
	case KindDiscount:
		return fmt.Sprintf("$%d discount applied with link: %s", lead.DiscountAmount, r.Code)
	case KindReferral:
		return fmt.Sprintf("Referral link applied: %s — $%d OFF", r.Code, lead.DiscountAmount)
	default:
		return fmt.Sprintf("Link not valid: %s", r.Code)
	}
}

// FailureMessage is the notice shown when ErrLookupUnavailable is returned.
const FailureMessage = "Something went wrong while validating your link."

// Lookup is the subset of db.Querier the resolver reads from.
type Lookup interface {
	ListDiscountsByCode(ctx context.Context, code string) ([]db.Grant, error)
	ListReferralsByCode(ctx context.Context, code string) ([]db.Grant, error)
}

// OpenRecorder is told about every successful resolution. It must not block.
type OpenRecorder interface {
	CodeOpened(ctx context.Context, session, code string) bool
}

// Resolver looks a code up in the discount table, then the referral table.
type Resolver struct {
	lookup  Lookup
	opens   OpenRecorder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewResolver wires a Resolver. opens and m may be nil.
func NewResolver(lookup Lookup, opens OpenRecorder, m *metrics.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{lookup: lookup, opens: opens, metrics: m, logger: logger}
}

// Resolve returns the grant identified by code. A lookup fault on one table is
// logged and treated as no match there; only when both tables fault does it
// return ErrLookupUnavailable. A match fires the code-opened event for session.
func (r *Resolver) Resolve(ctx context.Context, session, code string) (Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		r.metrics.ObserveCodeLookup(string(KindNotFound))
		return Result{Kind: KindNotFound}, nil
	}

	tables := []struct {
		kind Kind
		list func(context.Context, string) ([]db.Grant, error)
	}{
		{KindDiscount, r.lookup.ListDiscountsByCode},
		{KindReferral, r.lookup.ListReferralsByCode},
	}

	var faults []error
	for _, t := range tables {
		rows, err := t.list(ctx, code)
		if err != nil {
			r.logger.Warn("grants: lookup failed",
				"table", string(t.kind),
				"code", code,
				"error", err,
			)
			faults = append(faults, fmt.Errorf("%s: %w", t.kind, err))
			continue
		}
		if len(rows) != 1 {
			if len(rows) > 1 {
				r.logger.Warn("grants: duplicate code rows, ignoring table", "table", string(t.kind), "code", code)
			}
			continue
		}

		res := Result{
			Kind:  t.kind,
			Code:  code,
			Name:  rows[0].Name.String,
			Email: rows[0].Email.String,
			Phone: rows[0].Phone.String,
		}
		r.metrics.ObserveCodeLookup(string(t.kind))
		if r.opens != nil {
			r.opens.CodeOpened(ctx, session, code)
		}
		return res, nil
	}

	if len(faults) == len(tables) {
		r.metrics.ObserveCodeLookup("error")
		return Result{}, fmt.Errorf("%w: %w", ErrLookupUnavailable, errors.Join(faults...))
	}

	r.metrics.ObserveCodeLookup(string(KindNotFound))
	return Result{Kind: KindNotFound, Code: code}, nil
}
