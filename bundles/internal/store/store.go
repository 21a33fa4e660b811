// Package store provides the data access layer for cached bundle records.
//
// The store does not open its own database; it receives a *sql.DB opened by
// the caller (see dbopen) so tests can substitute an in-memory database.
package store

import (
	"database/sql"

	"github.com/hazyhaar/bundlecache/idgen"
)

// Store wraps the bundle database.
type Store struct {
	DB    *sql.DB
	newID idgen.Generator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets a custom ID generator for fetch-log row IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a Store from an already-opened database connection.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		DB:    db,
		newID: idgen.Prefixed("log_", idgen.Default),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}
