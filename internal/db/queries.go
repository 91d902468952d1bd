package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// Querier is the full query surface. Handlers and services depend on the
// narrower interfaces they need; tests embed Querier in stubs.
type Querier interface {
	ListDiscountsByCode(ctx context.Context, code string) ([]Grant, error)
	ListReferralsByCode(ctx context.Context, code string) ([]Grant, error)
	InsertCodeOpen(ctx context.Context, arg InsertCodeOpenParams) error
	InsertAllFieldsFilled(ctx context.Context, arg InsertAllFieldsFilledParams) error
	UpsertDiscount(ctx context.Context, arg Grant) error
	UpsertReferral(ctx context.Context, arg Grant) error
}

var _ Querier = (*Queries)(nil)

// LIMIT 2 is enough to tell "exactly one" from "more than one".
const listDiscountsByCode = `
SELECT code, name, email, phone
FROM discount
WHERE code = ?
LIMIT 2
`

func (q *Queries) ListDiscountsByCode(ctx context.Context, code string) ([]Grant, error) {
	return q.listGrants(ctx, q.listDiscountsByCodeStmt, listDiscountsByCode, code)
}

const listReferralsByCode = `
SELECT code, name, email, phone
FROM referral
WHERE code = ?
LIMIT 2
`

func (q *Queries) ListReferralsByCode(ctx context.Context, code string) ([]Grant, error) {
	return q.listGrants(ctx, q.listReferralsByCodeStmt, listReferralsByCode, code)
}

func (q *Queries) listGrants(ctx context.Context, stmt *sql.Stmt, query string, code string) ([]Grant, error) {
	rows, err := q.query(ctx, stmt, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Grant
	for rows.Next() {
		var i Grant
		if err := rows.Scan(&i.Code, &i.Name, &i.Email, &i.Phone); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertCodeOpen = `
INSERT INTO code_opens (code, opened_at)
VALUES (?, ?)
`

type InsertCodeOpenParams struct {
	Code     string
	OpenedAt time.Time
}

func (q *Queries) InsertCodeOpen(ctx context.Context, arg InsertCodeOpenParams) error {
	_, err := q.exec(ctx, q.insertCodeOpenStmt, insertCodeOpen, arg.Code, arg.OpenedAt)
	return err
}

const insertAllFieldsFilled = `
INSERT INTO code_all_fields_filled (code, filled_at, field_snapshot)
VALUES (?, ?, ?)
`

type InsertAllFieldsFilledParams struct {
	Code          string
	FilledAt      time.Time
	FieldSnapshot pqtype.NullRawMessage
}

func (q *Queries) InsertAllFieldsFilled(ctx context.Context, arg InsertAllFieldsFilledParams) error {
	_, err := q.exec(ctx, q.insertAllFieldsFilledStmt, insertAllFieldsFilled, arg.Code, arg.FilledAt, arg.FieldSnapshot)
	return err
}

const upsertDiscount = `
INSERT INTO discount (code, name, email, phone)
VALUES (?, ?, ?, ?)
ON CONFLICT (code) DO UPDATE
SET name = excluded.name, email = excluded.email, phone = excluded.phone
`

func (q *Queries) UpsertDiscount(ctx context.Context, arg Grant) error {
	_, err := q.exec(ctx, nil, upsertDiscount, arg.Code, arg.Name, arg.Email, arg.Phone)
	return err
}

const upsertReferral = `
INSERT INTO referral (code, name, email, phone)
VALUES (?, ?, ?, ?)
ON CONFLICT (code) DO UPDATE
SET name = excluded.name, email = excluded.email, phone = excluded.phone
`

func (q *Queries) UpsertReferral(ctx context.Context, arg Grant) error {
	_, err := q.exec(ctx, nil, upsertReferral, arg.Code, arg.Name, arg.Email, arg.Phone)
	return err
}
