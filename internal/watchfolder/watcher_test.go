package watchfolder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"weir/internal/mount"
	"weir/internal/testsupport"
	"weir/internal/watchfolder"
)

func newRecorder() (chan []string, func([]string)) {
	batches := make(chan []string, 16)
	return batches, func(paths []string) {
		batch := make([]string, len(paths))
		copy(batch, paths)
		batches <- batch
	}
}

func startWatcher(t *testing.T, opts watchfolder.Options) *watchfolder.Watcher {
	t.Helper()

	w, err := watchfolder.New(opts)
	if err != nil {
		t.Fatalf("watchfolder.New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("watcher start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitBatch(t *testing.T, batches chan []string, timeout time.Duration) []string {
	t.Helper()

	select {
	case batch := <-batches:
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a ready batch")
		return nil
	}
}

func expectNoBatch(t *testing.T, batches chan []string, window time.Duration) {
	t.Helper()

	select {
	case batch := <-batches:
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(window):
	}
}

func TestWatcherReportsExistingFilesOnAdd(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTorrent(t, filepath.Join(dir, "release.torrent"))
	testsupport.WriteMagnet(t, filepath.Join(dir, "link.magnet"), "c12fe1c06bba254a9dc9f519b335aa7c1367a88a")

	batches, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{OnItemsReady: record})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 2 {
		t.Fatalf("expected 2 ready paths, got %v", batch)
	}
	if filepath.Base(batch[0]) != "link.magnet" || filepath.Base(batch[1]) != "release.torrent" {
		t.Fatalf("expected sorted batch, got %v", batch)
	}
}

func TestWatcherReportsFileCreatedAfterAdd(t *testing.T) {
	dir := t.TempDir()

	batches, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{OnItemsReady: record})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	testsupport.WriteTorrent(t, filepath.Join(dir, "new.torrent"))
	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || filepath.Base(batch[0]) != "new.torrent" {
		t.Fatalf("unexpected batch %v", batch)
	}
}

func TestWatcherPromotesPartialFileOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "incoming.torrent")
	testsupport.WriteTruncatedTorrent(t, path)

	batches, record := newRecorder()
	// A long poll interval keeps the retry timer out of this test; the
	// rewrite notification alone must promote the file.
	w := startWatcher(t, watchfolder.Options{
		PollInterval: time.Minute,
		OnItemsReady: record,
	})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	expectNoBatch(t, batches, 100*time.Millisecond)

	stats := w.Snapshot()
	if stats.PartialItems != 1 || !stats.RetryTimerActive {
		t.Fatalf("expected one tracked partial with armed retry timer, got %+v", stats)
	}

	testsupport.WriteTorrent(t, path)
	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || batch[0] != path {
		t.Fatalf("unexpected batch %v", batch)
	}
}

func TestWatcherRetryTimerPromotes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slow.torrent")
	testsupport.WriteFile(t, path, "still downloading")

	var valid atomic.Bool
	batches, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{
		PollInterval:      25 * time.Millisecond,
		MaxPartialRetries: 1000,
		Validate:          func(string) bool { return valid.Load() },
		OnItemsReady:      record,
	})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	if stats := w.Snapshot(); stats.PartialItems != 1 {
		t.Fatalf("expected one tracked partial, got %+v", stats)
	}

	valid.Store(true)
	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || batch[0] != path {
		t.Fatalf("unexpected batch %v", batch)
	}
	if stats := w.Snapshot(); stats.PartialItems != 0 {
		t.Fatalf("expected empty ledger after promotion, got %+v", stats)
	}
}

func TestWatcherInvalidatesAfterRetryBudget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.torrent")
	testsupport.WriteTruncatedTorrent(t, path)

	batches, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{
		PollInterval:      20 * time.Millisecond,
		MaxPartialRetries: 1,
		OnItemsReady:      record,
	})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path + watchfolder.InvalidSuffix); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for file to be renamed aside")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected original file to be gone, stat err=%v", err)
	}
	expectNoBatch(t, batches, 100*time.Millisecond)
	if stats := w.Snapshot(); stats.PartialItems != 0 {
		t.Fatalf("expected empty ledger after invalidation, got %+v", stats)
	}
}

func TestWatcherNetworkDirectoryPolling(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteMagnet(t, filepath.Join(dir, "remote.magnet"), "c12fe1c06bba254a9dc9f519b335aa7c1367a88a")

	batches, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{
		PollInterval: 200 * time.Millisecond,
		Classify:     func(string) (mount.Kind, error) { return mount.Network, nil },
		OnItemsReady: record,
	})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	stats := w.Snapshot()
	if stats.NetworkDirs != 1 || stats.LocalDirs != 0 || !stats.PollTimerActive {
		t.Fatalf("expected polled network directory, got %+v", stats)
	}

	// Network directories are only scanned on ticks, never on add.
	expectNoBatch(t, batches, 100*time.Millisecond)
	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || filepath.Base(batch[0]) != "remote.magnet" {
		t.Fatalf("unexpected batch %v", batch)
	}

	if err := w.RemovePath(dir); err != nil {
		t.Fatalf("RemovePath: %v", err)
	}
	stats = w.Snapshot()
	if stats.NetworkDirs != 0 || stats.PollTimerActive {
		t.Fatalf("expected poll timer teardown with last network directory, got %+v", stats)
	}
}

func TestWatcherReportsEachFileLifetimeOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "once.magnet")
	testsupport.WriteMagnet(t, path, "c12fe1c06bba254a9dc9f519b335aa7c1367a88a")

	batches, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{
		PollInterval: 50 * time.Millisecond,
		Classify:     func(string) (mount.Kind, error) { return mount.Network, nil },
		OnItemsReady: record,
	})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || batch[0] != path {
		t.Fatalf("unexpected batch %v", batch)
	}

	// Subsequent polls see the same file and must stay silent.
	expectNoBatch(t, batches, 200*time.Millisecond)

	// Deleting and recreating the file starts a new lifetime.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove file: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	testsupport.WriteMagnet(t, path, "c12fe1c06bba254a9dc9f519b335aa7c1367a88a")

	batch = waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || batch[0] != path {
		t.Fatalf("unexpected batch after recreate %v", batch)
	}
}

func TestWatcherKeepsReportedPathsAcrossTransientListingFailure(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "watch")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "once.magnet")
	testsupport.WriteMagnet(t, path, "c12fe1c06bba254a9dc9f519b335aa7c1367a88a")

	batches, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{
		PollInterval: 50 * time.Millisecond,
		Classify:     func(string) (mount.Kind, error) { return mount.Network, nil },
		OnItemsReady: record,
	})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || batch[0] != path {
		t.Fatalf("unexpected batch %v", batch)
	}

	// Take the directory away across at least one poll tick, as when a
	// network share briefly drops out, then bring it back unchanged.
	aside := filepath.Join(base, "aside")
	if err := os.Rename(dir, aside); err != nil {
		t.Fatalf("rename aside: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if err := os.Rename(aside, dir); err != nil {
		t.Fatalf("restore: %v", err)
	}

	// The file never left its lifetime, so it must not be reported again.
	expectNoBatch(t, batches, 300*time.Millisecond)
}

func TestWatcherDisarmsRetryTimerWhenScanPromotesLastPartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.torrent")
	testsupport.WriteFile(t, path, "still downloading")

	var valid atomic.Bool
	batches, record := newRecorder()
	// A long poll interval keeps the retry timer from firing on its own;
	// the promotion must come from the rewrite notification's scan pass.
	w := startWatcher(t, watchfolder.Options{
		PollInterval: time.Minute,
		Validate:     func(string) bool { return valid.Load() },
		OnItemsReady: record,
	})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	stats := w.Snapshot()
	if stats.PartialItems != 1 || !stats.RetryTimerActive {
		t.Fatalf("expected one tracked partial with armed retry timer, got %+v", stats)
	}

	valid.Store(true)
	testsupport.WriteFile(t, path, "complete now")
	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || batch[0] != path {
		t.Fatalf("unexpected batch %v", batch)
	}

	stats = w.Snapshot()
	if stats.PartialItems != 0 || stats.RetryTimerActive {
		t.Fatalf("expected retry timer gone with empty ledger, got %+v", stats)
	}
}

func TestWatcherRestartStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "link.magnet")
	testsupport.WriteMagnet(t, path, "c12fe1c06bba254a9dc9f519b335aa7c1367a88a")

	batches, record := newRecorder()
	w, err := watchfolder.New(watchfolder.Options{OnItemsReady: record})
	if err != nil {
		t.Fatalf("watchfolder.New: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("watcher start: %v", err)
	}
	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	waitBatch(t, batches, 2*time.Second)
	w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("watcher restart: %v", err)
	}
	t.Cleanup(w.Stop)

	// The restarted watcher holds no registrations from the first run.
	if dirs := w.Directories(); len(dirs) != 0 {
		t.Fatalf("expected no watched directories after restart, got %v", dirs)
	}

	// Re-adding works and the file begins a new reporting lifetime.
	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath after restart: %v", err)
	}
	batch := waitBatch(t, batches, 2*time.Second)
	if len(batch) != 1 || batch[0] != path {
		t.Fatalf("unexpected batch after restart %v", batch)
	}
}

func TestWatcherAddPathIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	_, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{OnItemsReady: record})

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	if err := w.AddPath(dir); err != nil {
		t.Fatalf("re-AddPath: %v", err)
	}

	if dirs := w.Directories(); len(dirs) != 1 {
		t.Fatalf("expected one watched directory, got %v", dirs)
	}
	if stats := w.Snapshot(); stats.LocalDirs != 1 {
		t.Fatalf("expected one local directory, got %+v", stats)
	}
}

func TestWatcherIgnoresMissingDirectory(t *testing.T) {
	_, record := newRecorder()
	w := startWatcher(t, watchfolder.Options{OnItemsReady: record})

	if err := w.AddPath(filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Fatalf("expected missing directory to be ignored, got %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 0 {
		t.Fatalf("expected no watched directories, got %v", dirs)
	}
}

func TestWatcherRejectsOperationsWhenStopped(t *testing.T) {
	_, record := newRecorder()
	w, err := watchfolder.New(watchfolder.Options{OnItemsReady: record})
	if err != nil {
		t.Fatalf("watchfolder.New: %v", err)
	}

	if err := w.AddPath(t.TempDir()); !errors.Is(err, watchfolder.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning before start, got %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("watcher start: %v", err)
	}
	w.Stop()
	w.Stop()

	if err := w.AddPath(t.TempDir()); !errors.Is(err, watchfolder.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning after stop, got %v", err)
	}
}
