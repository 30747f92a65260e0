// Package records holds the personnel record schema, the in-memory record
// table and the storage backends that load and save it as a whole.
package records

import (
	"context"
	"fmt"
)

// Backend loads and saves the complete record table. Implementations keep
// no per-row state: every mutation is load, change in memory, save.
type Backend interface {
	Load(ctx context.Context) (*Table, error)
	Save(ctx context.Context, t *Table) error
	Ping(ctx context.Context) error
}

// Store applies single-row operations on top of a Backend. It does not lock;
// two concurrent writers can lose one of their updates.
type Store struct {
	backend Backend
}

// NewStore returns a Store using b.
func NewStore(b Backend) *Store {
	return &Store{backend: b}
}

// Load reads the whole table.
func (s *Store) Load(ctx context.Context) (*Table, error) {
	t, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return t, nil
}

// Save replaces the stored table with t.
func (s *Store) Save(ctx context.Context, t *Table) error {
	if err := s.backend.Save(ctx, t); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// Get returns the record at position i.
func (s *Store) Get(ctx context.Context, i int) (Record, error) {
	t, err := s.Load(ctx)
	if err != nil {
		return Record{}, err
	}
	return t.Row(i)
}

// Append adds rec at the end of the table and returns its position.
func (s *Store) Append(ctx context.Context, rec Record) (int, error) {
	t, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	idx := t.Append(rec)
	if err := s.Save(ctx, t); err != nil {
		return 0, err
	}
	return idx, nil
}

// Update overwrites the record at position i. Nothing is written when i is
// out of range.
func (s *Store) Update(ctx context.Context, i int, rec Record) error {
	t, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := t.Replace(i, rec); err != nil {
		return err
	}
	return s.Save(ctx, t)
}

// Delete removes the record at position i and returns it. Nothing is
// written when i is out of range.
func (s *Store) Delete(ctx context.Context, i int) (Record, error) {
	t, err := s.Load(ctx)
	if err != nil {
		return Record{}, err
	}
	removed, err := t.Remove(i)
	if err != nil {
		return Record{}, err
	}
	if err := s.Save(ctx, t); err != nil {
		return Record{}, err
	}
	return removed, nil
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
