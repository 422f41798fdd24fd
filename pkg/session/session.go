// Package session keeps picker state for preview clients between render
// passes.
//
// A preview client (the HTTP server's caller) renders the same text many
// times while editing. Each pass would otherwise start with empty recency
// windows and could repeat the glyphs of the previous pass. A [Session]
// stores the windows and the seed so the next pass continues where the
// last one stopped.
//
// # Stores
//
//   - [MemoryStore]: single process, for development and tests
//   - [FileStore]: JSON files under ~/.config/handwrite/sessions/
//   - [RedisStore]: shared by several server instances
//
// Get returns (nil, nil) for unknown or expired sessions.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/errors"
)

// DefaultTTL is how long an idle session lives.
const DefaultTTL = 24 * time.Hour

// Session is the persisted picker state of one preview client.
type Session struct {
	ID        string              `json:"id"`
	Seed      uint64              `json:"seed"`
	Passes    int                 `json:"passes"`
	Windows   map[string][]string `json:"windows,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// New creates a session with a random ID.
func New(seed uint64, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Seed:      seed,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session has passed its expiry time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the expiry to ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

// PassSeed returns the seed for the next render pass. Every pass gets a
// different seed derived from the session seed.
func (s *Session) PassSeed() uint64 {
	return s.Seed + uint64(s.Passes)
}

// PickerState returns the stored recency windows keyed by character.
// Keys that are not a single character are skipped.
func (s *Session) PickerState() map[rune][]catalog.VariantID {
	out := make(map[rune][]catalog.VariantID, len(s.Windows))
	for key, ids := range s.Windows {
		r := []rune(key)
		if len(r) != 1 {
			continue
		}
		w := make([]catalog.VariantID, len(ids))
		for i, id := range ids {
			w[i] = catalog.VariantID(id)
		}
		out[r[0]] = w
	}
	return out
}

// SetPickerState replaces the stored recency windows.
func (s *Session) SetPickerState(windows map[rune][]catalog.VariantID) {
	s.Windows = make(map[string][]string, len(windows))
	for r, ids := range windows {
		w := make([]string, len(ids))
		for i, id := range ids {
			w[i] = string(id)
		}
		s.Windows[string(r)] = w
	}
}

// ValidateID checks that id is a session identifier.
func ValidateID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid session id %q", id)
	}
	return nil
}

// Store persists sessions.
type Store interface {
	// Get returns the session, or nil if it does not exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores the session until its expiry time.
	Set(ctx context.Context, s *Session) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions. It may be a no-op.
	Cleanup(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
