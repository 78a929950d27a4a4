package grantstore

import (
	"sync"

	"github.com/agentcore/runtime/pkg/models"
)

// MemoryStore is a concurrent, process-local Store backed by a map from
// tool name to its grants. Every operation acquires an exclusive lock for
// the duration of the operation.
type MemoryStore struct {
	mu     sync.Mutex
	grants map[string][]models.Grant
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string][]models.Grant)}
}

// Save implements Store.
func (s *MemoryStore) Save(grant models.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.grants[grant.ToolName]
	for i, g := range existing {
		if g.Equal(grant) {
			existing[i] = grant
			return nil
		}
	}
	s.grants[grant.ToolName] = append(existing, grant)
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(toolName string) ([]models.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Grant, len(s.grants[toolName]))
	copy(out, s.grants[toolName])
	return out, nil
}

// LoadAll implements Store.
func (s *MemoryStore) LoadAll() ([]models.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Grant
	for _, grants := range s.grants {
		out = append(out, grants...)
	}
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(toolName string, paramsHash *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.grants[toolName]
	if len(existing) == 0 {
		return false, nil
	}
	kept := existing[:0:0]
	removed := false
	for _, g := range existing {
		if matchesDeleteTarget(g, paramsHash) {
			removed = true
			continue
		}
		kept = append(kept, g)
	}
	if removed {
		s.grants[toolName] = kept
	}
	return removed, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = make(map[string][]models.Grant)
	return nil
}

func matchesDeleteTarget(g models.Grant, paramsHash *string) bool {
	if paramsHash == nil {
		return g.ParamsHash == nil
	}
	return g.ParamsHash != nil && *g.ParamsHash == *paramsHash
}
