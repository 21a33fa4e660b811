package store

import (
	"context"
	"fmt"
	"strings"
)

// ReadBatch reads the primary rows for the given ids in one query, keyed by
// id. Unknown ids simply do not appear in the result.
//
// The name join is always performed: the staleness policy inspects the title
// even when the caller did not request it, and projection shaping is the
// caller's concern. The app membership lookup is a second query, issued only
// when withApps is set.
func (s *Store) ReadBatch(ctx context.Context, ids []int64, withApps bool) (map[int64]Row, map[int64][]int64, error) {
	if len(ids) == 0 {
		return map[int64]Row{}, map[int64][]int64{}, nil
	}

	ph, args := placeholders(ids)

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT b.id, b.removed, b.last_update, b.queued_for_update, n.name
		FROM bundles b
		LEFT JOIN bundle_names n ON n.id = b.id
		WHERE b.id IN (%s)`, ph), args...)
	if err != nil {
		return nil, nil, fmt.Errorf("read bundles: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]Row, len(ids))
	for rows.Next() {
		var r Row
		var removed, queued int
		if err := rows.Scan(&r.ID, &removed, &r.LastUpdate, &queued, &r.Name); err != nil {
			return nil, nil, fmt.Errorf("scan bundle: %w", err)
		}
		r.Removed = removed != 0
		r.QueuedForUpdate = queued != 0
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read bundles: %w", err)
	}

	apps := map[int64][]int64{}
	if withApps {
		apps, err = s.readApps(ctx, ph, args)
		if err != nil {
			return nil, nil, err
		}
	}
	return byID, apps, nil
}

func (s *Store) readApps(ctx context.Context, ph string, args []any) (map[int64][]int64, error) {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT bundle_id, app_id FROM bundle_apps
		WHERE bundle_id IN (%s)
		ORDER BY bundle_id, app_id`, ph), args...)
	if err != nil {
		return nil, fmt.Errorf("read apps: %w", err)
	}
	defer rows.Close()

	apps := make(map[int64][]int64)
	for rows.Next() {
		var bundleID, appID int64
		if err := rows.Scan(&bundleID, &appID); err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		apps[bundleID] = append(apps[bundleID], appID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read apps: %w", err)
	}
	return apps, nil
}

// placeholders builds an "?,?,?" list and the matching args slice for an
// IN clause over ids.
func placeholders(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
