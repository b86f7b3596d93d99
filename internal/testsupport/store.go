package testsupport

import (
	"context"
	"testing"

	"weir/internal/catalog"
	"weir/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem inserts a detected catalog item for tests using the provided store.
func NewItem(t testing.TB, store *catalog.Store, path string, kind catalog.Kind) *catalog.Item {
	t.Helper()

	item := &catalog.Item{Path: path, Kind: kind}
	if err := store.Insert(context.Background(), item); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return item
}
