package backend

import (
	"context"
	"fmt"

	"expenses/internal/amqp"
	applog "expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateRepository implements Factory.CreateRepository
func (f *DefaultFactory) CreateRepository(ctx context.Context, config Config) (storage.Repository, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(ctx, config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return repo, nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory backend, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := f.CreateRepository(ctx, config)
	if err != nil {
		return nil, err
	}

	// AMQP is optional: a broker outage must not keep the API down.
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = amqpClient
		}
	}

	service := services.NewExpenseService(repo, publisher, f.logger.WithComponent(applog.ComponentExpense))

	f.logger.Info("Backend ready",
		applog.FieldBackend, config.Type.String(),
		"events_enabled", publisher != nil)

	return &BackendResult{
		Service:    service,
		Repository: repo,
		Cleanup:    service.Close,
	}, nil
}
