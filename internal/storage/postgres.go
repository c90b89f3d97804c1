package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var postgresQueries = queries{
	list:   `SELECT id, name, amount, category FROM expenses ORDER BY id`,
	create: `INSERT INTO expenses (name, amount, category) VALUES ($1, $2, $3) RETURNING id, name, amount, category`,
	update: `UPDATE expenses SET name = $1, amount = $2, category = $3 WHERE id = $4 RETURNING id, name, amount, category`,
	delete: `DELETE FROM expenses WHERE id = $1 RETURNING id`,
}

// PostgresRepository stores expenses in a Postgres database.
type PostgresRepository struct {
	sqlRepository
}

// NewPostgresRepository connects to dsn and makes sure the expenses
// table exists.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunPostgresMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresRepository{sqlRepository{db: db, q: postgresQueries}}, nil
}
