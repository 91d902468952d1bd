package db

import (
	"database/sql"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// Grant is a row of either the discount or the referral table. Both tables
// share this shape.
type Grant struct {
	Code  string
	Name  sql.NullString
	Email sql.NullString
	Phone sql.NullString
}

type CodeOpen struct {
	ID       int64
	Code     string
	OpenedAt time.Time
}

type CodeAllFieldsFilled struct {
	ID            int64
	Code          string
	FilledAt      time.Time
	FieldSnapshot pqtype.NullRawMessage
}
