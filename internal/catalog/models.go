package catalog

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a catalog item.
type Status string

const (
	// StatusDetected marks a freshly reported file.
	StatusDetected Status = "detected"
	// StatusHandedOff marks a file relocated into the handoff directory.
	StatusHandedOff Status = "handed_off"
	// StatusFailed marks a file that could not be parsed or handed off.
	StatusFailed Status = "failed"
)

// Kind distinguishes the two metadata shapes the watch engine reports.
type Kind string

const (
	KindTorrent Kind = "torrent"
	KindMagnet  Kind = "magnet"
)

var allStatuses = []Status{StatusDetected, StatusHandedOff, StatusFailed}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if normalized == status {
			return status, true
		}
	}
	return "", false
}

// Item represents a catalog row persisted in SQLite.
type Item struct {
	ID           int64
	Path         string
	Kind         Kind
	Name         string
	InfoHash     string
	Announce     string
	TotalSize    int64
	FileCount    int
	BatchID      string
	Status       Status
	ErrorMessage string
	HandoffPath  string
	DetectedAt   time.Time
	UpdatedAt    time.Time
}

// HealthSummary describes aggregated catalog counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Detected  int
	HandedOff int
	Failed    int
}
