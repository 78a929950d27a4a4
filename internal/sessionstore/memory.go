package sessionstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/runtime/pkg/models"
)

// MemoryStore is an in-memory reference Store implementation, suitable
// for tests and for short-lived processes with no durable session needs.
type MemoryStore struct {
	mu sync.Mutex
	// byKey maps a session's directory key to its id, so GetOrCreateSession
	// is idempotent per key.
	byKey map[string]string
	byID  map[string]Snapshot
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[string]string),
		byID:  make(map[string]Snapshot),
	}
}

// GetOrCreateSession implements Store.
func (s *MemoryStore) GetOrCreateSession(_ context.Context, key string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[key]; ok {
		return s.byID[id], nil
	}

	session := models.Session{ID: uuid.NewString(), Key: key, CreatedAt: time.Now()}
	snapshot := Snapshot{Session: session}
	s.byKey[key] = session.ID
	s.byID[session.ID] = snapshot
	return snapshot, nil
}

// GetSession implements Store.
func (s *MemoryStore) GetSession(_ context.Context, id string) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.byID[id]
	return snapshot, ok, nil
}

// SaveSession implements Store.
func (s *MemoryStore) SaveSession(_ context.Context, snapshot Snapshot) error {
	if snapshot.Session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[snapshot.Session.ID] = snapshot
	s.byKey[snapshot.Session.Key] = snapshot.Session.ID
	return nil
}

// ListSessions implements Store.
func (s *MemoryStore) ListSessions(_ context.Context) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Session, 0, len(s.byID))
	for _, snapshot := range s.byID {
		out = append(out, snapshot.Session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteSession implements Store.
func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byID, id)
	delete(s.byKey, snapshot.Session.Key)
	return nil
}
