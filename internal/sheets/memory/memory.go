// Package memory is a Mirror that keeps rows in process. The worker uses
// it when no spreadsheet is configured, so events are still consumed and
// logged.
package memory

import (
	"context"
	"slices"
	"sync"

	"expenses/internal/core"
	"expenses/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows map[int64]core.Expense
}

func New() *Mirror {
	return &Mirror{rows: make(map[int64]core.Expense)}
}

func (m *Mirror) Upsert(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

func (m *Mirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *Mirror) IDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *Mirror) Sync(_ context.Context, expenses []core.Expense) (sheets.SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res sheets.SyncResult
	rows := make(map[int64]core.Expense, len(expenses))
	for _, e := range expenses {
		if _, ok := m.rows[e.ID]; ok {
			res.Updated++
		} else {
			res.Appended++
		}
		rows[e.ID] = e
	}
	for id := range m.rows {
		if _, ok := rows[id]; !ok {
			res.Removed++
		}
	}
	m.rows = rows
	return res, nil
}

// Row returns the mirrored record for id.
func (m *Mirror) Row(id int64) (core.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	return e, ok
}

// Len returns the number of mirrored rows.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
