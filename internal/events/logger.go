// Package events records the two analytics events of the lead funnel: a code
// link being opened, and a visitor filling every form field. Events are
// fire-and-forget: they run detached from the request, at most one successful
// write per browser session and event key, and failures never reach the
// caller.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/furniture-taxi-leads/internal/db"
	"github.com/nyashahama/furniture-taxi-leads/internal/lead"
	"github.com/nyashahama/furniture-taxi-leads/internal/metrics"
	"github.com/nyashahama/furniture-taxi-leads/internal/worker"
)

const (
	EventCodeOpened      = "code_opened"
	EventAllFieldsFilled = "all_fields_filled"
)

// Sink is the subset of db.Querier the logger writes to.
type Sink interface {
	InsertCodeOpen(ctx context.Context, arg db.InsertCodeOpenParams) error
	InsertAllFieldsFilled(ctx context.Context, arg db.InsertAllFieldsFilledParams) error
}

// Logger writes analytics events once per session.
type Logger struct {
	sink     Sink
	sessions SessionStore
	spawner  worker.Spawner
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewLogger wires a Logger. m may be nil.
func NewLogger(sink Sink, sessions SessionStore, spawner worker.Spawner, m *metrics.Metrics, logger *slog.Logger) *Logger {
	return &Logger{
		sink:     sink,
		sessions: sessions,
		spawner:  spawner,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// CodeOpenedKey and AllFieldsFilledKey build the marker keys.
func CodeOpenedKey(code string) string      { return "code-opened-" + code }
func AllFieldsFilledKey(code string) string { return "allfilled-" + code }

// LogOnce schedules write unless the session already holds eventKey. It
// reports whether a write was scheduled. The claim is released unless write
// succeeds, whether it errors, panics or is never started, so only successful
// writes count toward the once-per-session limit.
//
// An empty session cannot be tracked; the write is scheduled every time.
func (l *Logger) LogOnce(ctx context.Context, session, event, eventKey string, write worker.Task) bool {
	tracked := session != ""
	if tracked && !l.sessions.Claim(session, eventKey) {
		l.logger.Debug("events: already logged for session", "event", event, "key", eventKey)
		l.metrics.ObserveEvent(event, "skipped")
		return false
	}

	scheduled := l.spawner.Go(ctx, "event:"+eventKey, func(ctx context.Context) error {
		written := false
		defer func() {
			if written {
				return
			}
			if tracked {
				l.sessions.Release(session, eventKey)
			}
			l.metrics.ObserveEvent(event, "failed")
		}()

		if err := write(ctx); err != nil {
			return fmt.Errorf("events: %s: %w", event, err)
		}
		written = true
		l.metrics.ObserveEvent(event, "written")
		return nil
	})
	if !scheduled {
		if tracked {
			l.sessions.Release(session, eventKey)
		}
		l.metrics.ObserveEvent(event, "dropped")
		return false
	}
	return true
}

// CodeOpened records that code resolved to a grant in this session.
func (l *Logger) CodeOpened(ctx context.Context, session, code string) bool {
	openedAt := l.now().UTC()
	return l.LogOnce(ctx, session, EventCodeOpened, CodeOpenedKey(code), func(ctx context.Context) error {
		return l.sink.InsertCodeOpen(ctx, db.InsertCodeOpenParams{
			Code:     code,
			OpenedAt: openedAt,
		})
	})
}

// AllFieldsFilled records a snapshot of the form once every field holds a
// value. Incomplete snapshots are ignored and report false.
func (l *Logger) AllFieldsFilled(ctx context.Context, session, code string, fields lead.Lead) bool {
	if !fields.AllFilled() {
		return false
	}

	// Marshalling a struct of strings cannot fail.
	snapshot, _ := json.Marshal(fields)
	filledAt := l.now().UTC()

	return l.LogOnce(ctx, session, EventAllFieldsFilled, AllFieldsFilledKey(code), func(ctx context.Context) error {
		return l.sink.InsertAllFieldsFilled(ctx, db.InsertAllFieldsFilledParams{
			Code:     code,
			FilledAt: filledAt,
			FieldSnapshot: pqtype.NullRawMessage{
				RawMessage: snapshot,
				Valid:      true,
			},
		})
	})
}
