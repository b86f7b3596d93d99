package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, path, kind, name, info_hash, announce, total_size, file_count, batch_id, status, error_message, handoff_path, detected_at, updated_at"

// Insert persists a new catalog row and fills in the item's identifier and
// timestamps. An empty status defaults to detected.
func (s *Store) Insert(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if item.Status == "" {
		item.Status = StatusDetected
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO catalog_items (
            path, kind, name, info_hash, announce, total_size, file_count,
            batch_id, status, error_message, handoff_path, detected_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Path,
		string(item.Kind),
		nullableString(item.Name),
		nullableString(item.InfoHash),
		nullableString(item.Announce),
		item.TotalSize,
		item.FileCount,
		nullableString(item.BatchID),
		string(item.Status),
		nullableString(item.ErrorMessage),
		nullableString(item.HandoffPath),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert catalog item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	item.ID = id
	item.DetectedAt = now
	item.UpdatedAt = now
	return nil
}

// GetByID fetches a catalog item by identifier. A missing row returns nil
// without error.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindByPath returns the most recent item recorded for a path.
func (s *Store) FindByPath(ctx context.Context, path string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM catalog_items WHERE path = ? ORDER BY id DESC LIMIT 1`,
		path,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by path: %w", err)
	}
	return item, nil
}

// List returns items newest-first, optionally filtered by status. A zero
// limit returns everything.
func (s *Store) List(ctx context.Context, status Status, limit int) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM catalog_items`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkHandedOff records that an item's file was relocated to handoffPath.
func (s *Store) MarkHandedOff(ctx context.Context, id int64, handoffPath string) error {
	return s.setStatus(ctx, id, StatusHandedOff, "", handoffPath)
}

// MarkFailed records a processing failure for an item.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.setStatus(ctx, id, StatusFailed, message, "")
}

func (s *Store) setStatus(ctx context.Context, id int64, status Status, message, handoffPath string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE catalog_items SET status = ?, error_message = ?, handoff_path = COALESCE(?, handoff_path), updated_at = ? WHERE id = ?`,
		string(status),
		nullableString(message),
		nullableString(handoffPath),
		timestamp,
		id,
	)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("catalog item %d not found", id)
	}
	return nil
}

// Clear deletes every catalog row and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM catalog_items`)
	if err != nil {
		return 0, fmt.Errorf("clear catalog: %w", err)
	}
	return res.RowsAffected()
}

// ClearHandedOff deletes rows whose files have already been handed off.
func (s *Store) ClearHandedOff(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM catalog_items WHERE status = ?`, string(StatusHandedOff))
	if err != nil {
		return 0, fmt.Errorf("clear handed-off items: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM catalog_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates catalog state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusDetected:
			health.Detected += count
		case StatusHandedOff:
			health.HandedOff += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		path         string
		kind         string
		name         sql.NullString
		infoHash     sql.NullString
		announce     sql.NullString
		totalSize    sql.NullInt64
		fileCount    sql.NullInt64
		batchID      sql.NullString
		statusStr    string
		errorMessage sql.NullString
		handoffPath  sql.NullString
		detectedRaw  sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&path,
		&kind,
		&name,
		&infoHash,
		&announce,
		&totalSize,
		&fileCount,
		&batchID,
		&statusStr,
		&errorMessage,
		&handoffPath,
		&detectedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           id,
		Path:         path,
		Kind:         Kind(kind),
		Name:         name.String,
		InfoHash:     infoHash.String,
		Announce:     announce.String,
		TotalSize:    totalSize.Int64,
		FileCount:    int(fileCount.Int64),
		BatchID:      batchID.String,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		HandoffPath:  handoffPath.String,
	}
	item.DetectedAt = parseTimestamp(detectedRaw.String)
	item.UpdatedAt = parseTimestamp(updatedRaw.String)
	return item, nil
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	return time.Time{}
}
