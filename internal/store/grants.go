package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nyashahama/furniture-taxi-leads/internal/db"
)

// GrantSeed is the file shape accepted by ImportGrantsFile:
//
//	{
//	  "discount": [{"code": "SPRING50", "name": "Ada", "email": "...", "phone": "..."}],
//	  "referral": [{"code": "REF-ADA", "name": "Ada"}]
//	}
type GrantSeed struct {
	Discount []GrantRow `json:"discount"`
	Referral []GrantRow `json:"referral"`
}

// GrantRow is one seeded grant.
type GrantRow struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ErrEmptyCode is returned when a seed row has no code.
var ErrEmptyCode = errors.New("store: grant code must not be empty")

// ImportGrants upserts every row of seed in one transaction. Either all rows
// land or none do.
func (s *Store) ImportGrants(ctx context.Context, seed GrantSeed) (int, error) {
	n := 0
	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		for _, r := range seed.Discount {
			g, err := r.toGrant()
			if err != nil {
				return fmt.Errorf("ImportGrants: discount: %w", err)
			}
			if err := q.UpsertDiscount(ctx, g); err != nil {
				return fmt.Errorf("ImportGrants: upsert discount %q: %w", g.Code, err)
			}
			n++
		}
		for _, r := range seed.Referral {
			g, err := r.toGrant()
			if err != nil {
				return fmt.Errorf("ImportGrants: referral: %w", err)
			}
			if err := q.UpsertReferral(ctx, g); err != nil {
				return fmt.Errorf("ImportGrants: upsert referral %q: %w", g.Code, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ImportGrantsFile reads a GrantSeed JSON file and imports it.
func (s *Store) ImportGrantsFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("store: open seed file: %w", err)
	}
	defer f.Close()

	seed, err := decodeSeed(f)
	if err != nil {
		return 0, err
	}
	return s.ImportGrants(ctx, seed)
}

func decodeSeed(r io.Reader) (GrantSeed, error) {
	var seed GrantSeed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return GrantSeed{}, fmt.Errorf("store: decode seed file: %w", err)
	}
	return seed, nil
}

func (r GrantRow) toGrant() (db.Grant, error) {
	code := strings.TrimSpace(r.Code)
	if code == "" {
		return db.Grant{}, ErrEmptyCode
	}
	return db.Grant{
		Code:  code,
		Name:  nullString(r.Name),
		Email: nullString(r.Email),
		Phone: nullString(r.Phone),
	}, nil
}

// nullString converts a Go string to sql.NullString. Empty string → NULL.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
