// Package store owns the database connection: driver selection, pool tuning,
// schema migration, and the multi-step writes that must execute atomically.
//
// Single-query reads and inserts (grant lookups, event rows) are called
// directly on db.Querier and are not proxied through this package.
//
// Dependency rule: store imports db only.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/nyashahama/furniture-taxi-leads/internal/db"
)

// Store holds the pool for starting transactions and the prepared Queries for
// everything else.
type Store struct {
	pool    *sql.DB
	q       *db.Queries
	dialect db.Dialect
}

// Options tunes Open.
type Options struct {
	// AutoMigrate applies the embedded schema before statements are prepared.
	AutoMigrate bool
}

// Open connects to the database named by dsn, verifies it is reachable,
// optionally migrates, and prepares all statements. The server refuses to
// start if the schema is out of sync.
func Open(ctx context.Context, dialect db.Dialect, dsn string, opts Options) (*Store, error) {
	pool, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	switch dialect {
	case db.DialectSQLite:
		// One writer at a time; also keeps :memory: databases on a single
		// connection.
		pool.SetMaxOpenConns(1)
	default:
		pool.SetMaxOpenConns(25)
		pool.SetMaxIdleConns(10)
		pool.SetConnMaxLifetime(5 * time.Minute)
		pool.SetConnMaxIdleTime(2 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	s := &Store{pool: pool, dialect: dialect}

	if opts.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	q, err := db.Prepare(ctx, pool, dialect)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: prepare statements: %w", err)
	}
	s.q = q

	return s, nil
}

// New wraps an already-open pool. Statements are not prepared.
func New(pool *sql.DB, dialect db.Dialect) *Store {
	return &Store{pool: pool, q: db.New(pool, dialect), dialect: dialect}
}

// Q exposes the Querier for single-query reads and inserts.
//
//	rows, err := st.Q().ListDiscountsByCode(ctx, code)
func (s *Store) Q() db.Querier {
	return s.q
}

// Dialect reports the database flavour.
func (s *Store) Dialect() db.Dialect {
	return s.dialect
}

// Close releases prepared statements and the pool.
func (s *Store) Close() error {
	qErr := s.q.Close()
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: close pool: %w", err)
	}
	return qErr
}

// txQuerier receives a transactional Querier. Returning a non-nil error rolls
// the transaction back.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx begins a transaction, passes a Querier scoped to it to fn, and
// commits on success or rolls back on any error (including panics).
//
// Postgres runs serializable. SQLite transactions are already serialized by
// its single writer, and the driver only accepts the default level.
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	tx, err := s.pool.BeginTx(ctx, s.txOptions())
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, s.q.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

func (s *Store) txOptions() *sql.TxOptions {
	if s.dialect == db.DialectPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}
