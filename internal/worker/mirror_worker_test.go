package worker

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/sheets"
	"expenses/internal/sheets/memory"
	storemem "expenses/internal/storage/memory"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Component: applog.ComponentWorker, Output: &bytes.Buffer{}})
}

func coffee() core.Expense {
	return core.Expense{ID: 1, Name: "Coffee", Amount: core.MustParseAmount("3.50"), Category: "Food"}
}

func TestMirrorWorker_HandleEvent(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror, testLogger())
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewCreatedEvent(coffee())); err != nil {
		t.Fatalf("created: %v", err)
	}
	if row, ok := mirror.Row(1); !ok || row.Name != "Coffee" {
		t.Fatalf("row after create = %+v, %v", row, ok)
	}

	latte := coffee()
	latte.Name = "Latte"
	if err := w.HandleEvent(ctx, amqp.NewUpdatedEvent(latte)); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if row, _ := mirror.Row(1); row.Name != "Latte" {
		t.Fatalf("row after update = %+v", row)
	}

	if err := w.HandleEvent(ctx, amqp.NewDeletedEvent(1)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if mirror.Len() != 0 {
		t.Fatalf("mirror should be empty, has %d rows", mirror.Len())
	}
}

func TestMirrorWorker_HandleEventWithoutRecord(t *testing.T) {
	w := NewMirrorWorker(memory.New(), testLogger())
	err := w.HandleEvent(context.Background(), &amqp.ExpenseEvent{Type: amqp.EventCreated, ID: 1})
	if err == nil {
		t.Fatal("expected error for created event without record")
	}
}

type failingMirror struct{ *memory.Mirror }

func (failingMirror) Upsert(context.Context, core.Expense) error { return errors.New("quota exceeded") }

func TestMirrorWorker_MirrorErrorRequeues(t *testing.T) {
	w := NewMirrorWorker(failingMirror{memory.New()}, testLogger())
	err := w.HandleEvent(context.Background(), amqp.NewCreatedEvent(coffee()))
	if err == nil {
		t.Fatal("expected mirror error to be returned")
	}
}

type fakeConsumer struct {
	events []*amqp.ExpenseEvent
	errs   []error
}

func (c *fakeConsumer) Consume(ctx context.Context, handler func(context.Context, *amqp.ExpenseEvent) error) error {
	for _, e := range c.events {
		c.errs = append(c.errs, handler(ctx, e))
	}
	return context.Canceled
}

func TestMirrorWorker_Run(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror, testLogger())
	consumer := &fakeConsumer{events: []*amqp.ExpenseEvent{
		amqp.NewCreatedEvent(coffee()),
		amqp.NewDeletedEvent(1),
		amqp.NewCreatedEvent(core.Expense{ID: 2, Name: "Bus", Amount: core.MustParseAmount("2"), Category: "Transportation"}),
	}}

	if err := w.Run(context.Background(), consumer); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v", err)
	}
	for i, err := range consumer.errs {
		if err != nil {
			t.Errorf("event %d: %v", i, err)
		}
	}
	ids, _ := mirror.IDs(context.Background())
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("mirrored ids = %v, want [2]", ids)
	}
}

func TestMirrorWorker_Reconcile(t *testing.T) {
	ctx := context.Background()
	store := storemem.New(
		core.Expense{Name: "Coffee", Amount: core.MustParseAmount("3.5"), Category: "Food"},
		core.Expense{Name: "Bus", Amount: core.MustParseAmount("2"), Category: "Transportation"},
	)

	mirror := memory.New()
	// Stale row for a record deleted while the worker was offline.
	_ = mirror.Upsert(ctx, core.Expense{ID: 99, Name: "Gone"})
	// Outdated copy of record 1.
	_ = mirror.Upsert(ctx, core.Expense{ID: 1, Name: "Old name"})

	w := NewMirrorWorker(mirror, testLogger())
	if err := w.Reconcile(ctx, store); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	ids, _ := mirror.IDs(ctx)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("ids = %v, want [1 2]", ids)
	}
	if row, _ := mirror.Row(1); row.Name != "Coffee" {
		t.Errorf("row 1 = %+v, want refreshed record", row)
	}
}

type unsyncableMirror struct{ *memory.Mirror }

func (unsyncableMirror) Sync(context.Context, []core.Expense) (sheets.SyncResult, error) {
	return sheets.SyncResult{}, errors.New("quota exceeded")
}

func TestMirrorWorker_ReconcileSyncError(t *testing.T) {
	store := storemem.New(coffee())
	w := NewMirrorWorker(unsyncableMirror{memory.New()}, testLogger())
	if err := w.Reconcile(context.Background(), store); err == nil {
		t.Fatal("expected sync error to be returned")
	}
}
