// Package memory is an in-process expense store for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"expenses/internal/core"
)

// Store keeps expenses in memory. Ids start at 1 and are never reused.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

func New(seed ...core.Expense) *Store {
	s := &Store{nextID: 1}
	for _, e := range seed {
		s.insert(e)
	}
	return s
}

func (s *Store) insert(e core.Expense) core.Expense {
	e.ID = s.nextID
	s.nextID++
	s.items = append(s.items, e)
	return e
}

// List returns a copy of every record ordered by id.
func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(e), nil
}

func (s *Store) Update(_ context.Context, id int64, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	e.ID = id
	s.items[i] = e
	return e, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) index(id int64) int {
	return slices.IndexFunc(s.items, func(e core.Expense) bool { return e.ID == id })
}
