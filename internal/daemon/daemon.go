package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"weir/internal/catalog"
	"weir/internal/config"
	"weir/internal/logging"
	"weir/internal/notifications"
	"weir/internal/watchfolder"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	notifier notifications.Service
	watcher  *watchfolder.Watcher

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	Directories   []string
	Watch         watchfolder.Stats
	Catalog       catalog.HealthSummary
	CatalogDBPath string
	LockFilePath  string
	HandoffDir    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		notifier: notifications.NewService(cfg),
		lockPath: cfg.LockFilePath(),
		lock:     flock.New(cfg.LockFilePath()),
	}

	watcher, err := watchfolder.New(watchfolder.Options{
		PollInterval:      time.Duration(cfg.Watch.PollInterval) * time.Second,
		MaxPartialRetries: cfg.Watch.MaxPartialRetries,
		OnItemsReady:      d.onItemsReady,
		OnItemInvalidated: d.onItemInvalidated,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	d.watcher = watcher
	return d, nil
}

// Start acquires the daemon lock, launches the watch engine, and registers
// the configured watch directories.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another weir daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.watcher.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start watcher: %w", err)
	}

	for _, dir := range d.cfg.Watch.Directories {
		if err := d.watcher.AddPath(dir); err != nil {
			d.logger.Warn("could not watch configured directory",
				logging.Error(err),
				logging.String(logging.FieldDirectory, dir),
				logging.String(logging.FieldEventType, "watch_add_failed"),
				logging.String(logging.FieldErrorHint, "check the directory exists and is readable"),
				logging.String(logging.FieldImpact, "files placed there will not be detected"),
			)
			if nerr := d.notifier.NotifyError(d.ctx, err, "watching "+dir); nerr != nil {
				d.logger.Debug("watch failure notification failed", logging.Error(nerr))
			}
		}
	}

	d.running.Store(true)
	d.startedAt = time.Now()
	d.logger.Info("weir daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the watch engine and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file manually if restarts fail"),
			logging.String(logging.FieldImpact, "a stale lock may block the next daemon start"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("weir daemon stopped")
}

// Close releases resources held by the daemon. The catalog store is owned by
// the caller and is not closed here.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// WatchAdd starts watching a directory at runtime.
func (d *Daemon) WatchAdd(path string) error {
	return d.watcher.AddPath(path)
}

// WatchRemove stops watching a directory.
func (d *Daemon) WatchRemove(path string) error {
	return d.watcher.RemovePath(path)
}

// WatchList returns the watched directories.
func (d *Daemon) WatchList() []string {
	return d.watcher.Directories()
}

// ListItems returns catalog items filtered by status. An empty status lists
// everything.
func (d *Daemon) ListItems(ctx context.Context, status catalog.Status, limit int) ([]*catalog.Item, error) {
	return d.store.List(ctx, status, limit)
}

// GetItem fetches a catalog item by id.
func (d *Daemon) GetItem(ctx context.Context, id int64) (*catalog.Item, error) {
	return d.store.GetByID(ctx, id)
}

// ClearItems removes every catalog row.
func (d *Daemon) ClearItems(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearHandedOff removes catalog rows whose files were already handed off.
func (d *Daemon) ClearHandedOff(ctx context.Context) (int64, error) {
	return d.store.ClearHandedOff(ctx)
}

// TestNotification sends a test message through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "notifications are not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), nil
	}
	return true, "test notification sent", nil
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		StartedAt:     d.startedAt,
		CatalogDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		HandoffDir:    d.cfg.Paths.HandoffDir,
	}
	if status.Running {
		status.Directories = d.watcher.Directories()
		status.Watch = d.watcher.Snapshot()
	}
	if health, err := d.store.Health(ctx); err == nil {
		status.Catalog = health
	}
	return status
}
