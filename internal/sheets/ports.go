// Package sheets defines the spreadsheet mirror of the expenses table.
package sheets

import (
	"context"

	"expenses/internal/core"
)

// Mirror keeps one row per expense, keyed by id.
type Mirror interface {
	// Upsert writes e to the row holding e.ID, appending a row if none does.
	Upsert(ctx context.Context, e core.Expense) error
	// Remove clears the row holding id. Missing ids are not an error.
	Remove(ctx context.Context, id int64) error
	// IDs lists the ids currently present in the mirror.
	IDs(ctx context.Context) ([]int64, error)
	// Sync makes the mirror hold exactly expenses: existing rows are
	// rewritten, missing ones appended and rows of other ids cleared.
	Sync(ctx context.Context, expenses []core.Expense) (SyncResult, error)
}

// SyncResult counts the rows touched by Sync.
type SyncResult struct {
	Updated  int
	Appended int
	Removed  int
}

// Header is the first row written to an empty sheet.
var Header = []string{"ID", "Name", "Amount", "Category"}
