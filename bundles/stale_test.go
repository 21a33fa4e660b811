package bundles

import (
	"testing"
	"time"

	"github.com/hazyhaar/bundlecache/bundles/internal/store"
)

func TestStalePolicy(t *testing.T) {
	// WHAT: Table over the three requeue rules: pass-through of an existing
	// flag, the 6-day hard limit, and the 1-day limit for unnamed live rows.
	policy := stalePolicy{maxAge: 6 * 24 * time.Hour, incompleteMaxAge: 24 * time.Hour}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	name := "Pack"

	cases := []struct {
		desc string
		row  store.Row
		want bool
	}{
		{
			desc: "fresh named row stays",
			row:  store.Row{LastUpdate: now.Add(-2 * time.Hour).Unix(), Name: &name},
			want: false,
		},
		{
			desc: "already queued passes through",
			row:  store.Row{LastUpdate: now.Unix(), Name: &name, QueuedForUpdate: true},
			want: true,
		},
		{
			desc: "7 days old requeues regardless of other fields",
			row:  store.Row{LastUpdate: now.Add(-7 * 24 * time.Hour).Unix(), Name: &name, Removed: true},
			want: true,
		},
		{
			desc: "2 hours old without name stays",
			row:  store.Row{LastUpdate: now.Add(-2 * time.Hour).Unix()},
			want: false,
		},
		{
			desc: "25 hours old without name requeues",
			row:  store.Row{LastUpdate: now.Add(-25 * time.Hour).Unix()},
			want: true,
		},
		{
			desc: "25 hours old without name but removed stays",
			row:  store.Row{LastUpdate: now.Add(-25 * time.Hour).Unix(), Removed: true},
			want: false,
		},
		{
			desc: "25 hours old with empty-string name requeues",
			row:  store.Row{LastUpdate: now.Add(-25 * time.Hour).Unix(), Name: strPtr("")},
			want: true,
		},
		{
			desc: "6 days minus a minute stays when named",
			row:  store.Row{LastUpdate: now.Add(-6*24*time.Hour + time.Minute).Unix(), Name: &name},
			want: false,
		},
	}

	for _, c := range cases {
		if got := policy.shouldRequeue(&c.row, now); got != c.want {
			t.Errorf("%s: got %v, want %v", c.desc, got, c.want)
		}
	}
}

func strPtr(s string) *string { return &s }
