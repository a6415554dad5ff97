// Package session keeps per-client selection state for the HTTP server.
//
// Every browser gets its own selected node so that two people looking at
// the same pipeline do not fight over the highlight. Sessions expire after
// a TTL and are stored in one of:
//   - [MemoryStore]: in-process storage for a single server
//   - [FileStore]: JSON files, survives restarts
//   - [RedisStore]: shared storage for multi-instance deployments
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(session.DefaultTTL)
//	sess.SelectedKey = "n_1"
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Session stores one client's view state.
type Session struct {
	ID          string    `json:"id"`
	SelectedKey string    `json:"selected_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the session to ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (may be a no-op for Redis).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// New creates a session with a random ID and nothing selected.
func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// ValidateID checks that id has the form produced by [New]. Stores use it
// before turning an id into a file name or key.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeSessionNotFound, err, "invalid session id")
	}
	return nil
}
