package store

import (
	"context"
	"fmt"
)

// AppendFetchLog records one refresh attempt. The entry ID is generated if
// empty.
func (s *Store) AppendFetchLog(ctx context.Context, e *FetchLogEntry) error {
	if e.ID == "" {
		e.ID = s.newID()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO fetch_log (id, bundle_id, status, status_code, error_message, duration_ms, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BundleID, e.Status, e.StatusCode, e.ErrorMessage, e.DurationMs, e.FetchedAt)
	if err != nil {
		return fmt.Errorf("append fetch log: %w", err)
	}
	return nil
}

// RecentFetchLog returns the most recent attempts for one bundle, newest
// first.
func (s *Store) RecentFetchLog(ctx context.Context, bundleID int64, limit int) ([]*FetchLogEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, bundle_id, status, status_code, error_message, duration_ms, fetched_at
		FROM fetch_log
		WHERE bundle_id = ?
		ORDER BY fetched_at DESC
		LIMIT ?`, bundleID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent fetch log: %w", err)
	}
	defer rows.Close()

	var entries []*FetchLogEntry
	for rows.Next() {
		var e FetchLogEntry
		if err := rows.Scan(&e.ID, &e.BundleID, &e.Status, &e.StatusCode,
			&e.ErrorMessage, &e.DurationMs, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan fetch log: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
