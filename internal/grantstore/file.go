package grantstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentcore/runtime/pkg/models"
)

const grantsFilename = "grants.json"

// FileStore is a Store backed by a single JSON document on disk. The
// document is loaded lazily on first access and rewritten in full after
// every mutation. Parent directories are created on demand; an empty or
// missing file is treated as an empty store.
type FileStore struct {
	mu       sync.Mutex
	dir      string
	loaded   bool
	document map[string][]models.Grant
}

// NewFileStore constructs a FileStore rooted at dir. dir is not touched
// until the first Save/Load/Delete/Clear call.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, grantsFilename)
}

func (s *FileStore) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			s.document = make(map[string][]models.Grant)
			s.loaded = true
			return nil
		}
		return err
	}
	doc := make(map[string][]models.Grant)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
	}
	s.document = doc
	s.loaded = true
	return nil
}

func (s *FileStore) writeLocked() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.document, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0o600)
}

// Save implements Store.
func (s *FileStore) Save(grant models.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}
	existing := s.document[grant.ToolName]
	replaced := false
	for i, g := range existing {
		if g.Equal(grant) {
			existing[i] = grant
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(existing, grant)
	}
	s.document[grant.ToolName] = existing
	return s.writeLocked()
}

// Load implements Store.
func (s *FileStore) Load(toolName string) ([]models.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	out := make([]models.Grant, len(s.document[toolName]))
	copy(out, s.document[toolName])
	return out, nil
}

// LoadAll implements Store.
func (s *FileStore) LoadAll() ([]models.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	var out []models.Grant
	for _, grants := range s.document {
		out = append(out, grants...)
	}
	return out, nil
}

// Delete implements Store.
func (s *FileStore) Delete(toolName string, paramsHash *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return false, err
	}
	existing := s.document[toolName]
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
	if !removed {
		return false, nil
	}
	if len(kept) == 0 {
		delete(s.document, toolName)
	} else {
		s.document[toolName] = kept
	}
	return true, s.writeLocked()
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = make(map[string][]models.Grant)
	s.loaded = true
	return s.writeLocked()
}
