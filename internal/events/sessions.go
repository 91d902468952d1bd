package events

import (
	"context"
	"sync"
	"time"
)

// SessionStore holds the per-browser-session markers that keep an analytics
// event from being written twice. Implementations must be safe for concurrent
// use.
type SessionStore interface {
	// Claim marks key as taken for session and reports whether the caller got
	// it. A second Claim for the same pair returns false until Release.
	Claim(session, key string) bool

	// Release drops a claim so a later Claim can succeed. Called when the write
	// the claim guarded has failed.
	Release(session, key string)
}

type sessionEntry struct {
	keys     map[string]struct{}
	lastSeen time.Time
}

// MemorySessionStore keeps markers in process memory. Sessions idle for longer
// than the TTL are removed by Sweep, standing in for the browser session
// ending.
type MemorySessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewMemorySessionStore returns an empty store. ttl <= 0 disables expiry.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *MemorySessionStore) Claim(session, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[session]
	if !ok {
		e = &sessionEntry{keys: make(map[string]struct{})}
		s.sessions[session] = e
	}
	e.lastSeen = s.now()

	if _, taken := e.keys[key]; taken {
		return false
	}
	e.keys[key] = struct{}{}
	return true
}

func (s *MemorySessionStore) Release(session, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[session]; ok {
		delete(e.keys, key)
	}
}

// Len reports the number of tracked sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *MemorySessionStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor calls Sweep every interval until ctx is done. Run it in a
// goroutine from main.
func (s *MemorySessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
