// Package services holds the expense use cases shared by the HTTP API.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

// EventPublisher announces committed changes. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService validates requests, writes through the repository and
// publishes a change event after every successful write.
type ExpenseService struct {
	storage   storage.Repository
	publisher EventPublisher
	logger    *applog.StructuredLogger
}

// NewExpenseService wires a repository and an optional publisher.
func NewExpenseService(storage storage.Repository, publisher EventPublisher, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentExpense})
	}
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
		logger:    applog.NewStructuredLogger(logger),
	}
}

// List returns every stored expense ordered by id. The result is never nil.
func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	expenses, err := s.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, nil
}

// Create validates in and stores a new record. Validation failures are
// returned as *core.ValidationError and nothing is written.
func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := in.Validate()
	if err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.LogExpenseChanged(ctx, applog.OpCreate, created.ID, &created)
	s.publish(ctx, amqp.NewCreatedEvent(created))
	return created, nil
}

// Update replaces all fields of the record with the given id.
func (s *ExpenseService) Update(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error) {
	e, err := in.Validate()
	if err != nil {
		return core.Expense{}, err
	}

	updated, err := s.storage.Update(ctx, id, e)
	if errors.Is(err, core.ErrNotFound) {
		return core.Expense{}, err
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.logger.LogExpenseChanged(ctx, applog.OpUpdate, updated.ID, &updated)
	s.publish(ctx, amqp.NewUpdatedEvent(updated))
	return updated, nil
}

// Delete removes the record with the given id.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	err := s.storage.Delete(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.logger.LogExpenseChanged(ctx, applog.OpDelete, id, nil)
	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

// Ping reports whether the store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// publish never fails the request: the write is already committed.
func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.LogError(ctx, "Failed to publish expense event", err, applog.ComponentAMQP, applog.OpPublish,
			applog.NewFields().WithExpenseID(event.ID))
	}
}

// Close closes the repository and the publisher when it is closable.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}
