package bundles

import (
	"time"

	"github.com/hazyhaar/bundlecache/bundles/internal/store"
)

// stalePolicy decides whether a known record must be requeued for refresh.
//
// Fully-refreshed "removed" records age slowly; records that scraped
// successfully but yielded no title are suspected incomplete and retried
// sooner.
type stalePolicy struct {
	maxAge           time.Duration
	incompleteMaxAge time.Duration
}

// shouldRequeue reports the computed queue state for one row: already-queued
// passes through, otherwise age against the thresholds.
func (p stalePolicy) shouldRequeue(r *store.Row, now time.Time) bool {
	if r.QueuedForUpdate {
		return true
	}
	age := now.Sub(time.Unix(r.LastUpdate, 0))
	if age > p.maxAge {
		return true
	}
	noName := r.Name == nil || *r.Name == ""
	return noName && !r.Removed && age > p.incompleteMaxAge
}
