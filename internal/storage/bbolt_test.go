package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"skillconnect/internal/models"
)

func TestStorage(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "storage_test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewBboltStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	t.Run("Missing", func(t *testing.T) {
		if _, err := store.Get("access"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		if err := store.Set("access", "token-1"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Set("access", "token-2"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		v, err := store.Get("access")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v != "token-2" {
			t.Errorf("expected token-2, got %s", v)
		}

		keys, err := store.Keys()
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 1 || keys[0] != "access" {
			t.Errorf("unexpected keys %v", keys)
		}
	})

	t.Run("Reopen", func(t *testing.T) {
		if err := store.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		store, err = NewBboltStorage(dbPath)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		v, err := store.Get("access")
		if err != nil || v != "token-2" {
			t.Errorf("token not persisted across reopen: %q, %v", v, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete("access"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete("access"); err != nil {
			t.Errorf("second Delete failed: %v", err)
		}
		if _, err := store.Get("access"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	_ = store.Close()
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage()
	if _, err := m.Get("k"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	_ = m.Set("k", "v")
	if v, _ := m.Get("k"); v != "v" {
		t.Errorf("expected v, got %s", v)
	}
	_ = m.Delete("k")
	if _, err := m.Get("k"); err == nil {
		t.Error("expected error after delete")
	}
}
