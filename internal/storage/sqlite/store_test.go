package sqlite

import (
	"os"
	"testing"

	"studiosite/internal/storage"
)

func TestStoreImplementsInterface(t *testing.T) {
	t.Parallel()
	var _ storage.Store = (*Store)(nil)
}

func TestNewStore(t *testing.T) {
	t.Parallel()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	if store == nil {
		t.Fatal("Store is nil")
	}
	if err := store.Ping(t.Context()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	version, err := store.Migrate("../../../migrations")
	if err != nil {
		t.Fatalf("second migration run failed: %v", err)
	}
	if version != 3 {
		t.Errorf("schema version = %d, want 3", version)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir := t.TempDir()
	dbFile, err := os.CreateTemp(tempDir, "test_studio.*.db")
	if err != nil {
		t.Fatalf("failed to create db file: %v", err)
	}
	dbFile.Close()

	store, err := NewStore(dbFile.Name())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if _, err := store.Migrate("../../../migrations"); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
