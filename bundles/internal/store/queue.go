package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/bundlecache/dbopen"
)

// MarkQueued sets queued_for_update on every given id in one batched write,
// creating a bare row (identifier only) for previously-unknown ids. No-op on
// an empty set.
//
// A single statement runs in its own implicit transaction, so the read path
// is never held behind a long write lock.
func (s *Store) MarkQueued(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	var b strings.Builder
	args := make([]any, 0, len(ids))
	b.WriteString(`INSERT INTO bundles (id, removed, last_update, queued_for_update) VALUES `)
	for i, id := range ids {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, 0, 0, 1)")
		args = append(args, id)
	}
	b.WriteString(` ON CONFLICT(id) DO UPDATE SET queued_for_update = 1`)

	if _, err := dbopen.Exec(ctx, s.DB, b.String(), args...); err != nil {
		return fmt.Errorf("mark queued: %w", err)
	}
	return nil
}

// QueuedIDs returns up to limit ids currently flagged for refresh, oldest
// first, for the drain loop.
func (s *Store) QueuedIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id FROM bundles
		WHERE queued_for_update = 1
		ORDER BY last_update ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("queued ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan queued id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats returns aggregate counters over the cached records.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(queued_for_update), 0),
		       COALESCE(SUM(removed), 0)
		FROM bundles`).Scan(&st.Bundles, &st.Queued, &st.Removed)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}
