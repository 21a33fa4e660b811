package store

// Row is one bundle row as read by the batch reader. Name carries the joined
// title; nil means no name row exists.
type Row struct {
	ID              int64
	Removed         bool
	LastUpdate      int64 // epoch seconds; 0 = never refreshed
	QueuedForUpdate bool
	Name            *string
}

// Record is a candidate bundle produced by a successful scrape, merged into
// the store by Upsert.
type Record struct {
	ID         int64
	Removed    bool
	LastUpdate int64   // epoch seconds
	Name       string  // empty = no usable title observed
	Apps       []int64 // related item ids; nil/empty = none observed
}

// FetchLogEntry is one refresh attempt record.
type FetchLogEntry struct {
	ID           string `json:"id"`
	BundleID     int64  `json:"bundle_id"`
	Status       string `json:"status"` // "ok" | "removed" | "incomplete" | "error"
	StatusCode   int    `json:"status_code"`
	ErrorMessage string `json:"error_message"`
	DurationMs   int64  `json:"duration_ms"`
	FetchedAt    int64  `json:"fetched_at"`
}

// Stats holds aggregate counters over the cached records.
type Stats struct {
	Bundles int `json:"bundles"`
	Queued  int `json:"queued"`
	Removed int `json:"removed"`
}
