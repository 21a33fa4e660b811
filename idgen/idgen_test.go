package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7Unique(t *testing.T) {
	// WHAT: Consecutive IDs are distinct and well-formed.
	gen := UUIDv7()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen()
		if len(id) != 36 {
			t.Fatalf("id length: got %d, want 36 (%q)", len(id), id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("log_", Default)
	id := gen()
	if !strings.HasPrefix(id, "log_") {
		t.Errorf("id %q missing prefix", id)
	}
	if len(id) <= len("log_") {
		t.Errorf("id %q has no suffix", id)
	}
}
