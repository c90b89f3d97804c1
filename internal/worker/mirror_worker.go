// Package worker applies expense change events to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/sheets"
)

// Consumer delivers events until its context is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.ExpenseEvent) error) error
}

// Lister returns the current contents of the expenses table.
type Lister interface {
	List(ctx context.Context) ([]core.Expense, error)
}

// MirrorWorker keeps a sheets.Mirror in step with the expenses table.
type MirrorWorker struct {
	mirror sheets.Mirror
	logger *applog.Logger
}

func NewMirrorWorker(mirror sheets.Mirror, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	}
	return &MirrorWorker{mirror: mirror, logger: logger}
}

// HandleEvent applies one event. Returning an error requeues it.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	fields := applog.NewFields().
		WithExpenseID(event.ID).
		WithOperation(applog.OpMirror)
	fields[applog.FieldEventType] = string(event.Type)

	switch event.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		if event.Expense == nil {
			return fmt.Errorf("%s event %d carries no record", event.Type, event.ID)
		}
		if err := w.mirror.Upsert(ctx, *event.Expense); err != nil {
			return fmt.Errorf("mirror expense %d: %w", event.ID, err)
		}
	case amqp.EventDeleted:
		if err := w.mirror.Remove(ctx, event.ID); err != nil {
			return fmt.Errorf("remove expense %d: %w", event.ID, err)
		}
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event type", fields.ToSlice()...)
		return nil
	}

	w.logger.InfoContext(ctx, "Mirrored expense event", fields.ToSlice()...)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Mirror worker started")
	return consumer.Consume(ctx, w.HandleEvent)
}

// Reconcile rewrites every stored record into the mirror and clears rows
// whose record no longer exists. It covers events lost while the worker
// was down.
func (w *MirrorWorker) Reconcile(ctx context.Context, source Lister) error {
	expenses, err := source.List(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	res, err := w.mirror.Sync(ctx, expenses)
	if err != nil {
		return fmt.Errorf("sync mirror: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirror reconciled",
		"updated", res.Updated,
		"appended", res.Appended,
		"removed", res.Removed)
	return nil
}
