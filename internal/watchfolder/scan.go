package watchfolder

import (
	"os"
	"path/filepath"
)

// scanResult carries the outcome of one directory pass.
type scanResult struct {
	// ready holds the paths eligible for reporting this pass.
	ready []string
	// matched holds every pattern-matching path present in the listing,
	// reported or not, so the caller can prune its reported-path set.
	matched map[string]struct{}
	// listed reports whether the directory listing itself succeeded. A
	// failed listing says nothing about which files still exist, so
	// matched is only meaningful when listed is true.
	listed bool
}

// scanFolder lists dir and classifies each pattern-matching entry: reference
// files are immediately ready, valid metadata files are ready, and anything
// else enters the ledger for delayed rechecking. Paths in skip have already
// been reported and are never re-reported. Listing order is not significant.
func scanFolder(dir string, patterns Patterns, validate func(string) bool, led *ledger, skip map[string]struct{}) scanResult {
	result := scanResult{matched: make(map[string]struct{})}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Missing or unreadable directories yield an empty pass; the
		// watch registration stays in place in case the directory
		// reappears.
		return result
	}
	result.listed = true

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !patterns.Match(name) {
			continue
		}
		path := filepath.Join(dir, name)
		result.matched[path] = struct{}{}

		if _, reported := skip[path]; reported {
			continue
		}

		switch {
		case patterns.IsReference(name):
			result.ready = append(result.ready, path)
		case validate(path):
			// The file may have been tracked while incomplete; it is
			// reported here, so the retry pass must not see it again.
			led.remove(path)
			result.ready = append(result.ready, path)
		default:
			led.track(path)
		}
	}

	return result
}
