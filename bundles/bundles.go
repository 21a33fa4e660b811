// Package bundles implements a read-through cache for externally-sourced
// catalog bundle records.
//
// Get returns cached projections of a batch of ids, decides which are missing
// or stale, and flags those for asynchronous refresh. Fetch scrapes the
// authoritative page for one id and transactionally merges the result back
// into the store. The persisted queued_for_update flag is the refresh queue;
// the Drainer (drain.go) is one possible consumer.
package bundles

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/bundlecache/bundles/internal/scrape"
	"github.com/hazyhaar/bundlecache/bundles/internal/store"
)

// timeFormat is the wire format of last_update, always UTC.
const timeFormat = "2006/01/02 15:04:05"

// Schema is the SQLite schema for the bundle cache store, for callers that
// open the database themselves (see dbopen.WithSchema).
const Schema = store.Schema

// FetchLogEntry is one refresh attempt record.
type FetchLogEntry = store.FetchLogEntry

// Stats holds aggregate counters over the cached records.
type Stats = store.Stats

// Projection is the caller-facing subset of a cached record, shaped by the
// filter specification. ID, LastUpdate and QueuedForUpdate are always set.
type Projection struct {
	ID              int64   `json:"id"`
	Name            *string `json:"name,omitempty"`
	Removed         *bool   `json:"removed,omitempty"`
	Apps            []int64 `json:"apps,omitempty"`
	LastUpdate      string  `json:"last_update"`
	QueuedForUpdate bool    `json:"queued_for_update"`
}

// Service is the bundle cache orchestrator.
type Service struct {
	store   *store.Store
	fetcher scrape.Fetcher
	pageURL func(id int64) string
	policy  stalePolicy
	logger  *slog.Logger
	now     func() time.Time
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithFetcher overrides the page fetcher. Use in tests with fake pages.
func WithFetcher(f scrape.Fetcher) ServiceOption {
	return func(s *Service) { s.fetcher = f }
}

// WithClock overrides the time source for the staleness math.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// New creates a Service on an already-opened database (see dbopen).
func New(db *sql.DB, cfg *Config, opts ...ServiceOption) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()

	client := scrape.NewClient(scrape.Config{
		BaseURL:   cfg.Scrape.BaseURL,
		Country:   cfg.Scrape.Country,
		Language:  cfg.Scrape.Language,
		Timeout:   cfg.Scrape.Timeout,
		MaxBytes:  cfg.Scrape.MaxBytes,
		UserAgent: cfg.Scrape.UserAgent,
	})

	svc := &Service{
		store:   store.New(db),
		fetcher: client,
		pageURL: client.PageURL,
		policy: stalePolicy{
			maxAge:           cfg.Staleness.MaxAge,
			incompleteMaxAge: cfg.Staleness.IncompleteMaxAge,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Get returns one projection per known identifier, in first-occurrence input
// order; unknown identifiers are omitted from the result and queued for
// refresh as a side effect, together with known-but-stale ones. The queue
// write happens after staleness evaluation for the whole batch, in its own
// transaction scope.
func (s *Service) Get(ctx context.Context, ids []int64, filters string) ([]Projection, error) {
	fields, err := ParseFields(filters)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	uniq := dedupe(ids)
	rows, apps, err := s.store.ReadBatch(ctx, uniq, fields.Apps)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var projections []Projection
	var toQueue []int64
	for _, id := range uniq {
		row, known := rows[id]
		if !known {
			toQueue = append(toQueue, id)
			continue
		}

		queued := s.policy.shouldRequeue(&row, now)
		if queued && !row.QueuedForUpdate {
			toQueue = append(toQueue, id)
		}

		p := Projection{
			ID:              id,
			LastUpdate:      time.Unix(row.LastUpdate, 0).UTC().Format(timeFormat),
			QueuedForUpdate: queued,
		}
		if fields.Name {
			p.Name = row.Name
		}
		if fields.Removed {
			removed := row.Removed
			p.Removed = &removed
		}
		if fields.Apps {
			p.Apps = apps[id]
		}
		projections = append(projections, p)
	}

	if err := s.store.MarkQueued(ctx, toQueue); err != nil {
		return nil, err
	}
	return projections, nil
}

// Fetch scrapes the authoritative page for one identifier and merges the
// result atomically. It succeeds for removed and for unparseable-but-
// reachable pages; only a fetch that produced no content at all fails, with
// ErrUpstreamUnavailable and no store mutation.
func (s *Service) Fetch(ctx context.Context, id int64) error {
	start := s.now()
	page, err := s.fetcher.FetchPage(ctx, s.pageURL(id))
	if err != nil {
		s.logFetch(ctx, id, "error", err.Error(), start)
		return fmt.Errorf("%w: bundle %d: %v", ErrUpstreamUnavailable, id, err)
	}

	ex := scrape.ExtractBundle(page, id)
	rec := &store.Record{
		ID:         id,
		Removed:    ex.Removed,
		LastUpdate: s.now().Unix(),
		Name:       ex.Name,
		Apps:       ex.Apps,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.logFetch(ctx, id, "error", err.Error(), start)
		return fmt.Errorf("merge bundle %d: %w", id, err)
	}

	status := "ok"
	switch {
	case ex.Removed:
		status = "removed"
	case !ex.OK:
		status = "incomplete"
	}
	s.logFetch(ctx, id, status, "", start)
	s.logger.Debug("bundle refreshed", "bundle", id, "status", status)
	return nil
}

// Stats returns aggregate counters over the cached records.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}

// FetchLog returns the most recent refresh attempts for one bundle.
func (s *Service) FetchLog(ctx context.Context, id int64, limit int) ([]*FetchLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.RecentFetchLog(ctx, id, limit)
}

// logFetch appends a fetch_log row. Best-effort: a failing observability
// write never fails the refresh itself.
func (s *Service) logFetch(ctx context.Context, id int64, status, errMsg string, start time.Time) {
	now := s.now()
	e := &store.FetchLogEntry{
		BundleID:     id,
		Status:       status,
		ErrorMessage: errMsg,
		DurationMs:   now.Sub(start).Milliseconds(),
		FetchedAt:    now.Unix(),
	}
	if err := s.store.AppendFetchLog(ctx, e); err != nil {
		s.logger.Warn("fetch log write failed", "bundle", id, "error", err)
	}
}

// dedupe keeps the first occurrence of each id, preserving order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
