package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hazyhaar/bundlecache/dbopen"
)

// Upsert merges one scraped record and its child rows atomically. The primary
// row is overwritten on conflict (clearing the queue flag and advancing
// last_update); the name row and app pairs use insert-if-absent semantics.
//
// App pairs that disappeared from the latest scrape of a live bundle are NOT
// pruned; the merge only ever adds pairs. A removed record is the exception:
// its child rows are cleared so a dead bundle never advertises contents.
//
// Any failure rolls back the whole transaction; no partial writes are
// observable.
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bundles (id, removed, last_update, queued_for_update)
			VALUES (?, ?, ?, 0)
			ON CONFLICT(id) DO UPDATE SET
				removed           = excluded.removed,
				last_update       = excluded.last_update,
				queued_for_update = 0`,
			rec.ID, boolInt(rec.Removed), rec.LastUpdate)
		if err != nil {
			return fmt.Errorf("upsert bundle %d: %w", rec.ID, err)
		}

		if rec.Removed {
			if _, err := tx.ExecContext(ctx, `DELETE FROM bundle_names WHERE id = ?`, rec.ID); err != nil {
				return fmt.Errorf("clear name %d: %w", rec.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM bundle_apps WHERE bundle_id = ?`, rec.ID); err != nil {
				return fmt.Errorf("clear apps %d: %w", rec.ID, err)
			}
			return nil
		}

		if rec.Name != "" {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO bundle_names (id, name) VALUES (?, ?)
				ON CONFLICT(id) DO NOTHING`, rec.ID, rec.Name)
			if err != nil {
				return fmt.Errorf("insert name %d: %w", rec.ID, err)
			}
		}

		if len(rec.Apps) > 0 {
			var b strings.Builder
			args := make([]any, 0, 2*len(rec.Apps))
			b.WriteString(`INSERT INTO bundle_apps (bundle_id, app_id) VALUES `)
			for i, app := range rec.Apps {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString("(?, ?)")
				args = append(args, rec.ID, app)
			}
			b.WriteString(` ON CONFLICT(bundle_id, app_id) DO NOTHING`)
			if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
				return fmt.Errorf("insert apps %d: %w", rec.ID, err)
			}
		}
		return nil
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
