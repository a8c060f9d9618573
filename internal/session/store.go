// Package session provides session-scoped key-value storage for user inputs.
// Every session holds one JSON value per field key. Sessions expire after a
// period of inactivity; each write refreshes the expiry.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session has no stored keys.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

// Store is the persistence boundary of the user state.
type Store interface {
	// Load returns every stored key of the session. A session without keys
	// yields an empty map and no error.
	Load(ctx context.Context, sessionID string) (map[string][]byte, error)
	// Put writes all values atomically and refreshes the session expiry.
	Put(ctx context.Context, sessionID string, values map[string][]byte) error
	// Remove deletes the given keys, restoring their defaults on next load.
	Remove(ctx context.Context, sessionID string, keys ...string) error
	// Delete drops the whole session. Deleting an unknown session returns ErrNotFound.
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
