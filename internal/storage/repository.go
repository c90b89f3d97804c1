// Package storage persists expense records in Postgres or SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expenses/internal/core"
)

// Repository is the persistence port used by the expense service.
//
// List returns every record ordered by id ascending. Update and Delete
// return core.ErrNotFound when no record has the id.
type Repository interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, id int64, e core.Expense) (core.Expense, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

// queries holds the statements of one SQL dialect.
type queries struct {
	list   string
	create string
	update string
	delete string
}

// sqlRepository implements Repository over database/sql.
type sqlRepository struct {
	db *sql.DB
	q  queries
}

func (r *sqlRepository) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, r.q.list)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *sqlRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, r.q.create, e.Name, e.Amount, e.Category)
	created, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return created, nil
}

func (r *sqlRepository) Update(ctx context.Context, id int64, e core.Expense) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, r.q.update, e.Name, e.Amount, e.Category, id)
	updated, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	return updated, nil
}

func (r *sqlRepository) Delete(ctx context.Context, id int64) error {
	var deleted int64
	err := r.db.QueryRowContext(ctx, r.q.delete, id).Scan(&deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

func (r *sqlRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqlRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanExpense reads id, name, amount, category in that order.
func scanExpense(s scanner) (core.Expense, error) {
	var e core.Expense
	if err := s.Scan(&e.ID, &e.Name, &e.Amount, &e.Category); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}
