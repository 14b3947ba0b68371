// Package store owns the mutable set of databases. Handlers and validators
// borrow snapshots for the duration of one request; mutations run under
// the store lock so that name uniqueness holds and no target is observed
// in a torn state.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/konstin/vws-python-mock/pkg/database"
)

// ErrDatabaseNotFound is returned when a named database does not exist.
var ErrDatabaseNotFound = errors.New("database not found")

// Source provides a read snapshot of the database set. It is implemented
// by the in-memory store and by the HTTP-backed client used when the
// query service runs in a separate process from the target manager.
type Source interface {
	Databases(ctx context.Context) ([]*database.Database, error)
}

// Memory is the process-wide in-memory store.
type Memory struct {
	mu        sync.RWMutex
	databases []*database.Database
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

// Databases implements Source. The returned databases are deep copies;
// they may be read without holding any lock.
func (s *Memory) Databases(_ context.Context) ([]*database.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*database.Database, len(s.databases))
	for i, d := range s.databases {
		out[i] = d.Clone()
	}
	return out, nil
}

// Add registers a database, enforcing that its name and each of its four
// keys are unique across the store.
func (s *Memory) Add(_ context.Context, db *database.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.databases {
		if existing.Name == db.Name {
			return fmt.Errorf("database name %q already in use", db.Name)
		}
		for _, pair := range [][2]string{
			{existing.ServerAccessKey, db.ServerAccessKey},
			{existing.ServerSecretKey, db.ServerSecretKey},
			{existing.ClientAccessKey, db.ClientAccessKey},
			{existing.ClientSecretKey, db.ClientSecretKey},
		} {
			if pair[0] == pair[1] {
				return errors.New("database credential already in use")
			}
		}
	}
	s.databases = append(s.databases, db)
	return nil
}

// WithDatabase runs fn on the live database with the given name while
// holding the store write lock. The critical section covers resolve,
// validate and mutate, per the serialization contract.
func (s *Memory) WithDatabase(_ context.Context, name string, fn func(*database.Database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.databases {
		if d.Name == name {
			return fn(d)
		}
	}
	return ErrDatabaseNotFound
}

// Reset clears all databases.
func (s *Memory) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.databases = nil
}
