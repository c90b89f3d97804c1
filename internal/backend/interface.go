// Package backend builds the expense store and service selected by
// DATA_BACKEND.
package backend

import (
	"context"

	"expenses/internal/services"
	"expenses/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the service, the repository behind it and the
// function releasing both.
type BackendResult struct {
	Service    *services.ExpenseService
	Repository storage.Repository
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend builds the repository, the optional event publisher
	// and the expense service on top of them.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateRepository builds only the repository.
	CreateRepository(ctx context.Context, config Config) (storage.Repository, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Postgres
	PostgresDSN string

	// SQLite
	SQLiteDBPath string

	// AMQP is optional for every backend.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	PostgresBackend BackendType = "postgres"
	SQLiteBackend   BackendType = "sqlite"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case PostgresBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
