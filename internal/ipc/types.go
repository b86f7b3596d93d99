package ipc

import (
	"time"

	"weir/internal/catalog"
)

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// WatchStats mirrors the watch engine's runtime counters.
type WatchStats struct {
	LocalDirs        int  `json:"local_dirs"`
	NetworkDirs      int  `json:"network_dirs"`
	PartialItems     int  `json:"partial_items"`
	PollTimerActive  bool `json:"poll_timer_active"`
	RetryTimerActive bool `json:"retry_timer_active"`
}

// CatalogStats aggregates catalog row counts per lifecycle state.
type CatalogStats struct {
	Total     int `json:"total"`
	Detected  int `json:"detected"`
	HandedOff int `json:"handed_off"`
	Failed    int `json:"failed"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running       bool         `json:"running"`
	PID           int          `json:"pid"`
	StartedAt     string       `json:"started_at"`
	Directories   []string     `json:"directories"`
	Watch         WatchStats   `json:"watch"`
	Catalog       CatalogStats `json:"catalog"`
	CatalogDBPath string       `json:"catalog_db_path"`
	LockPath      string       `json:"lock_path"`
	HandoffDir    string       `json:"handoff_dir"`
}

// WatchAddRequest starts watching a directory.
type WatchAddRequest struct {
	Path string `json:"path"`
}

// WatchAddResponse reports the updated watch list.
type WatchAddResponse struct {
	Directories []string `json:"directories"`
}

// WatchRemoveRequest stops watching a directory.
type WatchRemoveRequest struct {
	Path string `json:"path"`
}

// WatchRemoveResponse reports the updated watch list.
type WatchRemoveResponse struct {
	Directories []string `json:"directories"`
}

// WatchListRequest fetches the watched directories.
type WatchListRequest struct{}

// WatchListResponse contains the watched directories.
type WatchListResponse struct {
	Directories []string `json:"directories"`
}

// Item is the wire representation of a catalog row.
type Item struct {
	ID           int64  `json:"id"`
	Path         string `json:"path"`
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	InfoHash     string `json:"info_hash"`
	Announce     string `json:"announce"`
	TotalSize    int64  `json:"total_size"`
	FileCount    int    `json:"file_count"`
	BatchID      string `json:"batch_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	HandoffPath  string `json:"handoff_path"`
	DetectedAt   string `json:"detected_at"`
	UpdatedAt    string `json:"updated_at"`
}

// FromCatalogItem converts a catalog row into its wire representation.
func FromCatalogItem(item *catalog.Item) Item {
	if item == nil {
		return Item{}
	}
	return Item{
		ID:           item.ID,
		Path:         item.Path,
		Kind:         string(item.Kind),
		Name:         item.Name,
		InfoHash:     item.InfoHash,
		Announce:     item.Announce,
		TotalSize:    item.TotalSize,
		FileCount:    item.FileCount,
		BatchID:      item.BatchID,
		Status:       string(item.Status),
		ErrorMessage: item.ErrorMessage,
		HandoffPath:  item.HandoffPath,
		DetectedAt:   formatTimestamp(item.DetectedAt),
		UpdatedAt:    formatTimestamp(item.UpdatedAt),
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

// ItemListRequest filters catalog listing by status.
type ItemListRequest struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

// ItemListResponse contains catalog entries.
type ItemListResponse struct {
	Items []Item `json:"items"`
}

// ItemDescribeRequest fetches a single catalog item by id.
type ItemDescribeRequest struct {
	ID int64 `json:"id"`
}

// ItemDescribeResponse contains a single catalog entry.
type ItemDescribeResponse struct {
	Item Item `json:"item"`
}

// ItemClearRequest removes all catalog rows.
type ItemClearRequest struct{}

// ItemClearResponse reports number of removed rows.
type ItemClearResponse struct {
	Removed int64 `json:"removed"`
}

// ItemClearHandedOffRequest removes handed-off rows.
type ItemClearHandedOffRequest struct{}

// ItemClearHandedOffResponse reports number of removed rows.
type ItemClearHandedOffResponse struct {
	Removed int64 `json:"removed"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
