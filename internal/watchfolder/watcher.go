package watchfolder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"weir/internal/logging"
	"weir/internal/metainfo"
	"weir/internal/mount"
)

// ErrNotRunning is returned by Watcher operations before Start or after Stop.
var ErrNotRunning = errors.New("watchfolder: watcher not running")

// Options configures a Watcher. Zero values fall back to the defaults noted
// on each field.
type Options struct {
	// Patterns defaults to DefaultPatterns.
	Patterns Patterns
	// PollInterval paces network-directory scans and partial-file
	// rechecks. Defaults to 10s.
	PollInterval time.Duration
	// MaxPartialRetries bounds rechecks of a not-yet-valid file before it
	// is invalidated. Defaults to 5.
	MaxPartialRetries int
	// Classify decides local versus network mode per directory.
	// Defaults to mount.Classify.
	Classify func(string) (mount.Kind, error)
	// Validate is the readiness predicate for metadata files.
	// Defaults to metainfo.IsValidFile.
	Validate func(string) bool
	// OnItemsReady receives every non-empty, sorted batch of ready paths.
	// It is invoked from the event loop, so it must not call back into the
	// Watcher and should return promptly. Required.
	OnItemsReady func(paths []string)
	// OnItemInvalidated is called with the original path of each file that
	// exhausted its retry budget. Optional; same calling rules as
	// OnItemsReady.
	OnItemInvalidated func(path string)
	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Stats is a point-in-time snapshot of watcher state, used for status
// reporting and tests.
type Stats struct {
	LocalDirs        int
	NetworkDirs      int
	PartialItems     int
	PollTimerActive  bool
	RetryTimerActive bool
}

// Watcher watches directories for ready metadata files, using OS
// notifications for local filesystems and polling for network mounts.
type Watcher struct {
	patterns      Patterns
	pollInterval  time.Duration
	maxRetries    int
	classify      func(string) (mount.Kind, error)
	validate      func(string) bool
	onItemsReady  func([]string)
	onInvalidated func(string)
	logger        *slog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	calls   chan func()
	done    chan struct{}

	// Event-loop-owned state. Only the loop goroutine touches these.
	fsw        *fsnotify.Watcher
	local      map[string]struct{}
	network    map[string]struct{}
	seen       map[string]struct{}
	ledger     *ledger
	pollTicker *time.Ticker
	retryTimer *time.Timer
}

// New builds a Watcher from opts. Start must be called before any watch
// operation.
func New(opts Options) (*Watcher, error) {
	if opts.OnItemsReady == nil {
		return nil, errors.New("watchfolder: OnItemsReady callback is required")
	}

	patterns := opts.Patterns
	if patterns == (Patterns{}) {
		patterns = DefaultPatterns()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	maxRetries := opts.MaxPartialRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	classify := opts.Classify
	if classify == nil {
		classify = mount.Classify
	}
	validate := opts.Validate
	if validate == nil {
		validate = metainfo.IsValidFile
	}

	return &Watcher{
		patterns:      patterns,
		pollInterval:  interval,
		maxRetries:    maxRetries,
		classify:      classify,
		validate:      validate,
		onItemsReady:  opts.OnItemsReady,
		onInvalidated: opts.OnItemInvalidated,
		logger:        logging.NewComponentLogger(opts.Logger, "watchfolder"),
		local:         make(map[string]struct{}),
		network:       make(map[string]struct{}),
		seen:          make(map[string]struct{}),
		ledger:        newLedger(),
	}, nil
}

// Start launches the event loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watchfolder: watcher already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// The previous loop's registrations died with its fsnotify watcher, so
	// a restarted watcher begins with no directories and a fresh ledger.
	w.local = make(map[string]struct{})
	w.network = make(map[string]struct{})
	w.seen = make(map[string]struct{})
	w.ledger = newLedger()

	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.ctx = runCtx
	w.cancel = cancel
	w.calls = make(chan func())
	w.done = make(chan struct{})
	w.running = true

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts the event loop and releases the OS watcher and any timers.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	if w.fsw != nil {
		_ = w.fsw.Close()
		w.fsw = nil
	}
}

// AddPath starts watching a directory. Missing directories are silently
// ignored. Re-adding a watched directory is a no-op.
func (w *Watcher) AddPath(path string) error {
	errc := make(chan error, 1)
	if !w.submit(func() { errc <- w.handleAdd(path) }) {
		return ErrNotRunning
	}
	select {
	case err := <-errc:
		return err
	case <-w.done:
		return ErrNotRunning
	}
}

// RemovePath stops watching a directory, comparing by canonical identity.
// Removing the last network directory destroys the poll timer.
func (w *Watcher) RemovePath(path string) error {
	errc := make(chan error, 1)
	if !w.submit(func() { errc <- w.handleRemove(path) }) {
		return ErrNotRunning
	}
	select {
	case err := <-errc:
		return err
	case <-w.done:
		return ErrNotRunning
	}
}

// Directories returns the sorted union of canonical watched directories.
func (w *Watcher) Directories() []string {
	out := make(chan []string, 1)
	if !w.submit(func() { out <- w.collectDirectories() }) {
		return nil
	}
	select {
	case dirs := <-out:
		return dirs
	case <-w.done:
		return nil
	}
}

// Snapshot returns current watcher statistics.
func (w *Watcher) Snapshot() Stats {
	out := make(chan Stats, 1)
	if !w.submit(func() { out <- w.collectStats() }) {
		return Stats{}
	}
	select {
	case stats := <-out:
		return stats
	case <-w.done:
		return Stats{}
	}
}

func (w *Watcher) submit(fn func()) bool {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return false
	}
	calls, done := w.calls, w.done
	w.mu.Unlock()

	select {
	case calls <- fn:
		return true
	case <-done:
		return false
	}
}

// loop owns every piece of mutable watch state. Handlers run to completion
// before the next event, tick, or call is dispatched, so no locking is needed
// on the sets, the ledger, or the timers.
func (w *Watcher) loop() {
	defer w.wg.Done()
	defer close(w.done)
	defer func() {
		if w.pollTicker != nil {
			w.pollTicker.Stop()
			w.pollTicker = nil
		}
		if w.retryTimer != nil {
			w.retryTimer.Stop()
			w.retryTimer = nil
		}
	}()

	for {
		// Absent timers select on nil channels, which never fire.
		var pollC, retryC <-chan time.Time
		if w.pollTicker != nil {
			pollC = w.pollTicker.C
		}
		if w.retryTimer != nil {
			retryC = w.retryTimer.C
		}

		select {
		case <-w.ctx.Done():
			return
		case fn := <-w.calls:
			fn()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("directory notification error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "fsnotify_error"),
				logging.String(logging.FieldErrorHint, "check inotify limits and watched directory permissions"),
				logging.String(logging.FieldImpact, "a change notification may have been missed"),
			)
		case <-pollC:
			w.scanNetworkFolders()
		case <-retryC:
			w.retryTimer = nil
			w.processPartialItems()
		}
	}
}

func (w *Watcher) handleAdd(path string) error {
	canonical, err := canonicalPath(path)
	if err != nil {
		return fmt.Errorf("resolve watch path: %w", err)
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		// Missing directories are ignored, not an error to the caller.
		w.logger.Debug("ignoring missing watch directory", logging.String(logging.FieldDirectory, canonical))
		return nil
	}

	kind, diag := w.classify(canonical)
	if diag != nil {
		w.logger.Warn("filesystem classification failed, assuming local",
			logging.Error(diag),
			logging.String(logging.FieldDirectory, canonical),
			logging.String(logging.FieldEventType, "mount_classify_failed"),
			logging.String(logging.FieldErrorHint, "verify the mount is healthy; use a local path if the share is gone"),
			logging.String(logging.FieldImpact, "directory is watched with OS notifications, which may miss changes on network shares"),
		)
	}

	if kind == mount.Network {
		if _, ok := w.network[canonical]; ok {
			return nil
		}
		w.network[canonical] = struct{}{}
		if w.pollTicker == nil {
			w.pollTicker = time.NewTicker(w.pollInterval)
		}
		w.logger.Info("watching network directory via polling",
			logging.String(logging.FieldDirectory, canonical),
			logging.Duration("poll_interval", w.pollInterval),
		)
		return nil
	}

	if _, ok := w.local[canonical]; ok {
		return nil
	}
	if err := w.fsw.Add(canonical); err != nil {
		return fmt.Errorf("register directory watch: %w", err)
	}
	w.local[canonical] = struct{}{}
	w.logger.Info("watching local directory", logging.String(logging.FieldDirectory, canonical))

	// No notification will fire for files that already exist, so scan once.
	w.report(w.scanDir(canonical))
	return nil
}

func (w *Watcher) handleRemove(path string) error {
	canonical, err := canonicalPath(path)
	if err != nil {
		return fmt.Errorf("resolve watch path: %w", err)
	}

	if _, ok := w.network[canonical]; ok {
		delete(w.network, canonical)
		if len(w.network) == 0 && w.pollTicker != nil {
			w.pollTicker.Stop()
			w.pollTicker = nil
		}
		w.logger.Info("stopped watching network directory", logging.String(logging.FieldDirectory, canonical))
		return nil
	}

	if _, ok := w.local[canonical]; ok {
		if err := w.fsw.Remove(canonical); err != nil {
			// The kernel drops watches for deleted directories on its
			// own; removal of an already-gone watch is not a failure.
			w.logger.Debug("deregister directory watch", logging.Error(err), logging.String(logging.FieldDirectory, canonical))
		}
		delete(w.local, canonical)
		w.logger.Info("stopped watching local directory", logging.String(logging.FieldDirectory, canonical))
	}
	return nil
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	name := filepath.Clean(event.Name)
	dir := name
	if _, ok := w.local[dir]; !ok {
		dir = filepath.Dir(name)
		if _, ok := w.local[dir]; !ok {
			return
		}
	}
	w.report(w.scanDir(dir))
}

// scanDir runs one scanner pass over dir, prunes reported paths whose files
// vanished, arms the retry timer when the ledger is non-empty, and returns
// the ready paths.
func (w *Watcher) scanDir(dir string) []string {
	result := scanFolder(dir, w.patterns, w.validate, w.ledger, w.seen)

	// Prune only when the listing succeeded: a transient listing failure
	// (a network share dropping out between polls) says nothing about the
	// files, and forgetting them here would re-report them once the share
	// returns.
	if result.listed {
		for path := range w.seen {
			if filepath.Dir(path) != dir {
				continue
			}
			if _, present := result.matched[path]; !present {
				// File is gone; a later file at the same path is a
				// new lifetime and may be reported again.
				delete(w.seen, path)
			}
		}
	}
	for _, path := range result.ready {
		w.seen[path] = struct{}{}
	}

	w.armRetryTimer()
	return result.ready
}

func (w *Watcher) scanNetworkFolders() {
	var ready []string
	for dir := range w.network {
		ready = append(ready, w.scanDir(dir)...)
	}
	w.report(ready)
}

func (w *Watcher) processPartialItems() {
	result := w.ledger.retryPass(w.validate, w.maxRetries, w.logger)

	for _, path := range result.promoted {
		w.seen[path] = struct{}{}
	}
	for _, path := range result.invalidated {
		w.logger.Warn("metadata file never became valid",
			logging.String("path", path),
			logging.Int("retries", w.maxRetries),
			logging.String(logging.FieldEventType, "partial_invalidated"),
			logging.String(logging.FieldErrorHint, "inspect the .invalid file; the producer may have aborted the download"),
			logging.String(logging.FieldImpact, "file will not be reported"),
		)
		if w.onInvalidated != nil {
			w.onInvalidated(path)
		}
	}

	if w.ledger.len() > 0 {
		w.retryTimer = time.NewTimer(w.pollInterval)
		w.logger.Debug("partial items remain", logging.Int("partial_count", w.ledger.len()))
	} else {
		w.logger.Debug("no partial items remain")
	}

	w.report(result.promoted)
}

// armRetryTimer keeps the retry timer in lockstep with the ledger: armed
// while entries remain, absent once a scan pass promotes the last one.
func (w *Watcher) armRetryTimer() {
	switch {
	case w.ledger.len() == 0:
		if w.retryTimer != nil {
			w.retryTimer.Stop()
			w.retryTimer = nil
		}
	case w.retryTimer == nil:
		w.retryTimer = time.NewTimer(w.pollInterval)
	}
}

func (w *Watcher) report(paths []string) {
	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.logger.Info("metadata files ready",
		logging.Int("ready_count", len(paths)),
		logging.String(logging.FieldEventType, "items_ready"),
	)
	w.onItemsReady(paths)
}

func (w *Watcher) collectDirectories() []string {
	dirs := make([]string, 0, len(w.local)+len(w.network))
	for dir := range w.local {
		dirs = append(dirs, dir)
	}
	for dir := range w.network {
		if _, ok := w.local[dir]; !ok {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

func (w *Watcher) collectStats() Stats {
	return Stats{
		LocalDirs:        len(w.local),
		NetworkDirs:      len(w.network),
		PartialItems:     w.ledger.len(),
		PollTimerActive:  w.pollTicker != nil,
		RetryTimerActive: w.retryTimer != nil,
	}
}

// canonicalPath resolves symlinks so the same directory reached through
// different spellings maps to one watch entry. Paths that cannot be resolved
// (for example, already-deleted directories) fall back to a cleaned absolute
// form.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}
