// Package db holds the typed queries against the lead database, laid out the
// way sqlc lays out generated code: a DBTX abstraction, a Queries type with
// optional prepared statements, and a Querier interface for stubbing.
//
// Queries are written with ? placeholders and rebound for the target dialect
// once, when the Queries value is built.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax and schema flavour.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect maps a DB_DRIVER value to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("db: unsupported driver %q", s)
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}

// Rebind rewrites ? placeholders into $N for Postgres. Question marks inside
// single-quoted literals are left alone.
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New returns Queries that run unprepared statements against db.
func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

// Prepare prepares every statement up front. A schema mismatch (missing table
// or column) fails here instead of on the first request. The grant upserts are
// only used for seeding and stay unprepared.
func Prepare(ctx context.Context, db DBTX, dialect Dialect) (*Queries, error) {
	q := Queries{db: db, dialect: dialect}
	var err error
	if q.listDiscountsByCodeStmt, err = db.PrepareContext(ctx, Rebind(dialect, listDiscountsByCode)); err != nil {
		return nil, fmt.Errorf("error preparing query ListDiscountsByCode: %w", err)
	}
	if q.listReferralsByCodeStmt, err = db.PrepareContext(ctx, Rebind(dialect, listReferralsByCode)); err != nil {
		return nil, fmt.Errorf("error preparing query ListReferralsByCode: %w", err)
	}
	if q.insertCodeOpenStmt, err = db.PrepareContext(ctx, Rebind(dialect, insertCodeOpen)); err != nil {
		return nil, fmt.Errorf("error preparing query InsertCodeOpen: %w", err)
	}
	if q.insertAllFieldsFilledStmt, err = db.PrepareContext(ctx, Rebind(dialect, insertAllFieldsFilled)); err != nil {
		return nil, fmt.Errorf("error preparing query InsertAllFieldsFilled: %w", err)
	}
	return &q, nil
}

// Close releases the prepared statements.
func (q *Queries) Close() error {
	var err error
	for _, stmt := range []*sql.Stmt{
		q.listDiscountsByCodeStmt,
		q.listReferralsByCodeStmt,
		q.insertCodeOpenStmt,
		q.insertAllFieldsFilledStmt,
	} {
		if stmt == nil {
			continue
		}
		if cerr := stmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing statement: %w", cerr)
		}
	}
	return err
}

func (q *Queries) exec(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) (sql.Result, error) {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).ExecContext(ctx, args...)
	case stmt != nil:
		return stmt.ExecContext(ctx, args...)
	default:
		return q.db.ExecContext(ctx, Rebind(q.dialect, query), args...)
	}
}

func (q *Queries) query(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) (*sql.Rows, error) {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).QueryContext(ctx, args...)
	case stmt != nil:
		return stmt.QueryContext(ctx, args...)
	default:
		return q.db.QueryContext(ctx, Rebind(q.dialect, query), args...)
	}
}

// Queries implements Querier.
type Queries struct {
	db      DBTX
	tx      *sql.Tx
	dialect Dialect

	listDiscountsByCodeStmt   *sql.Stmt
	listReferralsByCodeStmt   *sql.Stmt
	insertCodeOpenStmt        *sql.Stmt
	insertAllFieldsFilledStmt *sql.Stmt
}

// Dialect reports the dialect the queries were built for.
func (q *Queries) Dialect() Dialect {
	return q.dialect
}

// WithTx returns a copy of q bound to tx. Prepared statements are re-bound to
// the transaction on use.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db:                        tx,
		tx:                        tx,
		dialect:                   q.dialect,
		listDiscountsByCodeStmt:   q.listDiscountsByCodeStmt,
		listReferralsByCodeStmt:   q.listReferralsByCodeStmt,
		insertCodeOpenStmt:        q.insertCodeOpenStmt,
		insertAllFieldsFilledStmt: q.insertAllFieldsFilledStmt,
	}
}
