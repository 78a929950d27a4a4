// Package sessionstore persists conversation sessions: an id, a
// directory key, a creation timestamp, and the ordered message history
// with its tool calls and results. The core treats everything else about
// a session as opaque.
package sessionstore

import (
	"context"

	"github.com/agentcore/runtime/pkg/models"
)

// Snapshot is the round-tripped state of one session.
type Snapshot struct {
	Session  models.Session
	Messages []models.Message
}

// Store is the session persistence capability. All methods are fallible.
type Store interface {
	// GetOrCreateSession returns the session for key, creating it if it
	// does not yet exist.
	GetOrCreateSession(ctx context.Context, key string) (Snapshot, error)
	// GetSession returns the session with the given id.
	GetSession(ctx context.Context, id string) (Snapshot, bool, error)
	// SaveSession atomically persists the full snapshot.
	SaveSession(ctx context.Context, snapshot Snapshot) error
	// ListSessions returns every known session, most recently created first.
	ListSessions(ctx context.Context) ([]models.Session, error)
	// DeleteSession removes a session and its history.
	DeleteSession(ctx context.Context, id string) error
}
