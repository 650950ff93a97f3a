// Package web serves the browser upload path: password login, receipt
// upload and review, a correction loop, and final confirmation. It shares
// the gateway and formatting layers with the chat flow but keeps its own
// per-request state; nothing here touches the chat conversation record.
package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionTTL = 24 * time.Hour

// SessionStore tracks login tokens with a fixed TTL. Expired tokens are
// dropped lazily on lookup.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a session store. now may be nil for time.Now.
func NewSessionStore(now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions: make(map[string]time.Time),
		ttl:      sessionTTL,
		now:      now,
	}
}

// Create issues a new session token.
func (s *SessionStore) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[token] = s.now().Add(s.ttl)
	return token
}

// Valid reports whether the token exists and has not expired.
func (s *SessionStore) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.sessions[token]
	if !ok {
		return false
	}
	if s.now().After(expiresAt) {
		delete(s.sessions, token)
		return false
	}
	return true
}
