package store

// Schema is the complete bundle cache schema. Timestamps are epoch seconds.
//
// Child rows are owned by their bundles row: created and replaced together,
// never independently, hence the ON DELETE CASCADE references.
const Schema = `
-- Cached bundle records
CREATE TABLE IF NOT EXISTS bundles (
    id                INTEGER PRIMARY KEY,
    removed           INTEGER NOT NULL DEFAULT 0,
    last_update       INTEGER NOT NULL DEFAULT 0,
    queued_for_update INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_bundles_queued ON bundles(queued_for_update, last_update);

-- Scraped titles. A row exists only if a non-empty title was observed;
-- absence is distinct from an empty string.
CREATE TABLE IF NOT EXISTS bundle_names (
    id   INTEGER PRIMARY KEY REFERENCES bundles(id) ON DELETE CASCADE,
    name TEXT NOT NULL
);

-- App membership: related item ids discovered on the bundle page.
CREATE TABLE IF NOT EXISTS bundle_apps (
    bundle_id INTEGER NOT NULL REFERENCES bundles(id) ON DELETE CASCADE,
    app_id    INTEGER NOT NULL,
    PRIMARY KEY (bundle_id, app_id)
) WITHOUT ROWID;

-- Refresh attempt log (observability). No FK: error attempts may precede
-- the bundle row.
CREATE TABLE IF NOT EXISTS fetch_log (
    id            TEXT PRIMARY KEY,
    bundle_id     INTEGER NOT NULL,
    status        TEXT NOT NULL,
    status_code   INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    fetched_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_bundle ON fetch_log(bundle_id, fetched_at DESC);
`
