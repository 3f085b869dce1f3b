package db

import (
	"github.com/themobileprof/paintrack-be/internal/store"
)

// Store implements store.Store on top of Postgres. Mutations publish
// change events so live consumers can refresh.
type Store struct {
	db      *DB
	changes *store.Notifier
}

// NewStore wraps an open connection.
func NewStore(db *DB) *Store {
	return &Store{
		db:      db,
		changes: store.NewNotifier(),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Changes() *store.Notifier { return s.changes }
