package watchfolder

import (
	"errors"
	"log/slog"
	"os"

	"weir/internal/logging"
)

// ledger tracks files that matched the patterns but were not yet valid when
// scanned, together with how often each has been rechecked. A path appears at
// most once; entries leave exactly once, by promotion, invalidation, or the
// file vanishing.
type ledger struct {
	entries map[string]int
}

func newLedger() *ledger {
	return &ledger{entries: make(map[string]int)}
}

// track inserts path with a zero retry count. Reports whether the path was
// newly added.
func (l *ledger) track(path string) bool {
	if _, ok := l.entries[path]; ok {
		return false
	}
	l.entries[path] = 0
	return true
}

// remove drops path from the ledger, if present. Used when a scan pass finds
// a tracked file valid before the retry timer gets to it.
func (l *ledger) remove(path string) {
	delete(l.entries, path)
}

func (l *ledger) contains(path string) bool {
	_, ok := l.entries[path]
	return ok
}

func (l *ledger) len() int {
	return len(l.entries)
}

// retryResult reports the outcome of one ledger pass. Invalidated paths are
// diagnostic only and are never delivered to consumers.
type retryResult struct {
	promoted    []string
	invalidated []string
}

// retryPass rechecks every tracked file: vanished files are dropped silently,
// files that became valid are promoted, files that exhausted the retry budget
// are renamed aside with InvalidSuffix (best-effort) and dropped, and
// everything else has its counter incremented.
func (l *ledger) retryPass(validate func(string) bool, maxRetries int, logger *slog.Logger) retryResult {
	var result retryResult
	for path, retries := range l.entries {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			delete(l.entries, path)
			continue
		}

		if validate(path) {
			delete(l.entries, path)
			result.promoted = append(result.promoted, path)
			continue
		}

		if retries >= maxRetries {
			if err := os.Rename(path, path+InvalidSuffix); err != nil {
				logger.Warn("could not rename invalid metadata file",
					logging.Error(err),
					logging.String("path", path),
					logging.String(logging.FieldEventType, "invalid_rename_failed"),
					logging.String(logging.FieldErrorHint, "remove or fix the file manually"),
					logging.String(logging.FieldImpact, "file is no longer tracked but still matches the watch patterns"),
				)
			}
			delete(l.entries, path)
			result.invalidated = append(result.invalidated, path)
			continue
		}

		l.entries[path] = retries + 1
	}
	return result
}
