package grantstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentcore/runtime/pkg/models"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(t.TempDir()),
	}
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			grant := models.ToolWideGrant("search", models.ScopeSession)
			if err := store.Save(grant); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			loaded, err := store.Load("search")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(loaded) != 1 {
				t.Fatalf("Load() len = %d, want 1", len(loaded))
			}
			if !loaded[0].Equal(grant) {
				t.Errorf("loaded grant does not equal saved grant (modulo CreatedAt)")
			}
		})
	}
}

func TestStore_DeleteToolWideOnly(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			hash := "abc123"
			_ = store.Save(models.ToolWideGrant("search", models.ScopeSession))
			_ = store.Save(models.ExactGrant("search", hash, models.ScopeSession))

			removed, err := store.Delete("search", nil)
			if err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if !removed {
				t.Fatalf("Delete() removed = false, want true")
			}

			loaded, _ := store.Load("search")
			if len(loaded) != 1 {
				t.Fatalf("Load() len = %d, want 1 (exact grant should remain)", len(loaded))
			}
			if loaded[0].ParamsHash == nil || *loaded[0].ParamsHash != hash {
				t.Errorf("remaining grant is not the exact-match grant")
			}
		})
	}
}

func TestStore_DeleteExactHashOnly(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			hash := "abc123"
			_ = store.Save(models.ToolWideGrant("search", models.ScopeSession))
			_ = store.Save(models.ExactGrant("search", hash, models.ScopeSession))

			removed, err := store.Delete("search", &hash)
			if err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if !removed {
				t.Fatalf("Delete() removed = false, want true")
			}

			loaded, _ := store.Load("search")
			if len(loaded) != 1 {
				t.Fatalf("Load() len = %d, want 1 (tool-wide grant should remain)", len(loaded))
			}
			if loaded[0].ParamsHash != nil {
				t.Errorf("remaining grant should be tool-wide")
			}
		})
	}
}

func TestStore_ClearRemovesEverything(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_ = store.Save(models.ToolWideGrant("search", models.ScopeSession))
			if err := store.Clear(); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			all, _ := store.LoadAll()
			if len(all) != 0 {
				t.Errorf("LoadAll() len = %d, want 0 after Clear()", len(all))
			}
		})
	}
}

func TestFileStore_EmptyFileTreatedAsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, grantsFilename)
	if err := os.WriteFile(path, []byte{}, 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	store := NewFileStore(dir)
	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("LoadAll() len = %d, want 0 for an empty file", len(all))
	}
}

func TestFileStore_CreatesParentDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "grants")
	store := NewFileStore(dir)
	if err := store.Save(models.ToolWideGrant("search", models.ScopeSession)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Load("search"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
