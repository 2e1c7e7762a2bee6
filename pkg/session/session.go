// Package session stores interactive waterfall views.
//
// A view session remembers which trace a client is looking at and which
// rows it has expanded, so that the server can re-render the waterfall
// after every toggle without the client resending its state. Display-mode
// views are stateless and never get a session.
//
// Two backends are provided:
//   - memory: in-process storage for a single server instance and tests
//   - file: entries in a file cache directory, surviving restarts
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New("checkout.json", session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/spantower/pkg/waterfall"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("view not found")

// DefaultTTL is the default view lifetime.
const DefaultTTL = 24 * time.Hour

// Session is one interactive view of a trace.
type Session struct {
	ID         string    `json:"id"`
	Trace      string    `json:"trace"`
	Expanded   []string  `json:"expanded,omitempty"`
	TrackWidth float64   `json:"track_width,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// New creates a session for trace with a fresh random id and nothing expanded.
func New(trace string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Trace:     trace,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Toggles rebuilds the toggle map from the stored expanded ids.
func (s *Session) Toggles() *waterfall.Toggles {
	return waterfall.NewToggles(s.Expanded...)
}

// Click applies a row click and records the resulting state. It reports
// whether the session changed.
func (s *Session) Click(spanID string) bool {
	t := s.Toggles()
	if !waterfall.OnRowClick(spanID, t, false) {
		return false
	}
	s.Expanded = t.IDs()
	return true
}

// Touch extends the expiry by ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

// ValidID reports whether id looks like a session id.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get returns the session with the given id, or ErrNotFound if it
	// does not exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}
