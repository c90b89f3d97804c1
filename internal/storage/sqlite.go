package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var sqliteQueries = queries{
	list:   `SELECT id, name, amount, category FROM expenses ORDER BY id`,
	create: `INSERT INTO expenses (name, amount, category) VALUES (?, ?, ?) RETURNING id, name, amount, category`,
	update: `UPDATE expenses SET name = ?, amount = ?, category = ? WHERE id = ? RETURNING id, name, amount, category`,
	delete: `DELETE FROM expenses WHERE id = ? RETURNING id`,
}

// SQLiteRepository stores expenses in a local SQLite file.
type SQLiteRepository struct {
	sqlRepository
}

func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{sqlRepository{db: db, q: sqliteQueries}}, nil
}
