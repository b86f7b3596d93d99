package catalog_test

import (
	"context"
	"testing"

	"weir/internal/catalog"
	"weir/internal/testsupport"
)

func TestInsertAndGet(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := &catalog.Item{
		Path:      "/watch/release.torrent",
		Kind:      catalog.KindTorrent,
		Name:      "release",
		InfoHash:  "c12fe1c06bba254a9dc9f519b335aa7c1367a88a",
		Announce:  "http://tracker.example.com/announce",
		TotalSize: 4096,
		FileCount: 1,
		BatchID:   "batch-1",
	}
	if err := store.Insert(ctx, item); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected Insert to assign an id")
	}
	if item.Status != catalog.StatusDetected {
		t.Fatalf("expected detected status, got %q", item.Status)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected item")
	}
	if got.Path != item.Path || got.InfoHash != item.InfoHash || got.Kind != catalog.KindTorrent {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if got.DetectedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be recorded")
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	got, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing row, got %+v", got)
	}
}

func TestFindByPathReturnsNewest(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewItem(t, store, "/watch/a.torrent", catalog.KindTorrent)
	second := testsupport.NewItem(t, store, "/watch/a.torrent", catalog.KindTorrent)

	got, err := store.FindByPath(ctx, "/watch/a.torrent")
	if err != nil {
		t.Fatalf("FindByPath: %v", err)
	}
	if got == nil || got.ID != second.ID || got.ID == first.ID {
		t.Fatalf("expected newest row %d, got %+v", second.ID, got)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.NewItem(t, store, "/watch/a.torrent", catalog.KindTorrent)
	testsupport.NewItem(t, store, "/watch/b.magnet", catalog.KindMagnet)

	if err := store.MarkHandedOff(ctx, a.ID, "/handoff/a.torrent"); err != nil {
		t.Fatalf("MarkHandedOff: %v", err)
	}

	handedOff, err := store.List(ctx, catalog.StatusHandedOff, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(handedOff) != 1 || handedOff[0].ID != a.ID {
		t.Fatalf("unexpected handed-off listing: %+v", handedOff)
	}
	if handedOff[0].HandoffPath != "/handoff/a.torrent" {
		t.Fatalf("expected handoff path to persist, got %q", handedOff[0].HandoffPath)
	}

	all, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
	if all[0].ID < all[1].ID {
		t.Fatal("expected newest-first ordering")
	}
}

func TestMarkFailedRecordsMessage(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "/watch/bad.torrent", catalog.KindTorrent)
	if err := store.MarkFailed(ctx, item.ID, "parse failed"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != catalog.StatusFailed || got.ErrorMessage != "parse failed" {
		t.Fatalf("unexpected failed item: %+v", got)
	}
}

func TestMarkMissingItemFails(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.MarkFailed(context.Background(), 12345, "nope"); err == nil {
		t.Fatal("expected error for missing item")
	}
}

func TestClearVariants(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.NewItem(t, store, "/watch/a.torrent", catalog.KindTorrent)
	testsupport.NewItem(t, store, "/watch/b.torrent", catalog.KindTorrent)
	if err := store.MarkHandedOff(ctx, a.ID, "/handoff/a.torrent"); err != nil {
		t.Fatalf("MarkHandedOff: %v", err)
	}

	removed, err := store.ClearHandedOff(ctx)
	if err != nil {
		t.Fatalf("ClearHandedOff: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 handed-off row removed, got %d", removed)
	}

	removed, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 remaining row removed, got %d", removed)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 0 {
		t.Fatalf("expected empty catalog, got %+v", health)
	}
}

func TestHealthAggregatesStatuses(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.NewItem(t, store, "/watch/a.torrent", catalog.KindTorrent)
	b := testsupport.NewItem(t, store, "/watch/b.torrent", catalog.KindTorrent)
	testsupport.NewItem(t, store, "/watch/c.magnet", catalog.KindMagnet)
	if err := store.MarkHandedOff(ctx, a.ID, "/handoff/a.torrent"); err != nil {
		t.Fatalf("MarkHandedOff: %v", err)
	}
	if err := store.MarkFailed(ctx, b.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	want := catalog.HealthSummary{Total: 3, Detected: 1, HandedOff: 1, Failed: 1}
	if health != want {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := catalog.ParseStatus(" Detected "); !ok || status != catalog.StatusDetected {
		t.Fatalf("unexpected parse result %q %v", status, ok)
	}
	if _, ok := catalog.ParseStatus("unknown"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}
