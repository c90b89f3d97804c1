package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, e *amqp.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func quietLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Component: applog.ComponentExpense, Output: buf})
}

func TestExpenseService_CreatePublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, quietLogger(&bytes.Buffer{}))

	got, err := svc.Create(context.Background(), core.ExpenseInput{Name: "Coffee", Amount: "3.5", Category: "Food"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != 1 || got.Amount.String() != "3.50" {
		t.Fatalf("Create returned %+v", got)
	}
	if len(pub.events) != 1 || pub.events[0].Type != amqp.EventCreated || pub.events[0].ID != 1 {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestExpenseService_ValidationWritesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	store := memory.New()
	svc := NewExpenseService(store, pub, quietLogger(&bytes.Buffer{}))
	ctx := context.Background()

	tests := []core.ExpenseInput{
		{Name: "", Amount: "1", Category: "Food"},
		{Name: "Coffee", Amount: "", Category: "Food"},
		{Name: "Coffee", Amount: "1", Category: "  "},
		{Name: "Coffee", Amount: "abc", Category: "Food"},
	}
	for _, in := range tests {
		_, err := svc.Create(ctx, in)
		var verr *core.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Create(%+v) error = %v, want ValidationError", in, err)
		}
	}

	list, _ := svc.List(ctx)
	if len(list) != 0 || len(pub.events) != 0 {
		t.Errorf("expected no writes, got list=%+v events=%d", list, len(pub.events))
	}
}

func TestExpenseService_UpdateAndDelete(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, quietLogger(&bytes.Buffer{}))
	ctx := context.Background()

	created, _ := svc.Create(ctx, core.ExpenseInput{Name: "Coffee", Amount: "3.50", Category: "Food"})

	updated, err := svc.Update(ctx, created.ID, core.ExpenseInput{Name: "Latte", Amount: "4.25", Category: "Food"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != created.ID || updated.Name != "Latte" {
		t.Fatalf("Update returned %+v", updated)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("List after delete = %+v", list)
	}

	want := []amqp.EventType{amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %+v", pub.events)
	}
	for i, typ := range want {
		if pub.events[i].Type != typ {
			t.Errorf("event %d = %s, want %s", i, pub.events[i].Type, typ)
		}
	}
	if pub.events[2].Expense != nil {
		t.Error("delete event should not carry a record")
	}
}

func TestExpenseService_NotFound(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, quietLogger(&bytes.Buffer{}))
	ctx := context.Background()

	if _, err := svc.Update(ctx, 5, core.ExpenseInput{Name: "x", Amount: "1", Category: "y"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, 5); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("no events expected, got %d", len(pub.events))
	}
}

func TestExpenseService_PublishFailureDoesNotFailWrite(t *testing.T) {
	var logs bytes.Buffer
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	svc := NewExpenseService(memory.New(), pub, quietLogger(&logs))

	if _, err := svc.Create(context.Background(), core.ExpenseInput{Name: "Coffee", Amount: "3", Category: "Food"}); err != nil {
		t.Fatalf("Create should succeed despite publish failure: %v", err)
	}
	if !bytes.Contains(logs.Bytes(), []byte("broker unavailable")) {
		t.Errorf("expected publish failure to be logged, got %s", logs.String())
	}
}

func TestExpenseService_NilPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil, nil)
	if _, err := svc.Create(context.Background(), core.ExpenseInput{Name: "a", Amount: "1", Category: "b"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

type failingRepo struct{ *memory.Store }

var errDown = errors.New("database is down")

func (failingRepo) List(context.Context) ([]core.Expense, error) { return nil, errDown }

func TestExpenseService_StorageErrorsAreWrapped(t *testing.T) {
	svc := NewExpenseService(failingRepo{memory.New()}, nil, quietLogger(&bytes.Buffer{}))
	_, err := svc.List(context.Background())
	if !errors.Is(err, errDown) {
		t.Fatalf("List error = %v, want wrapped errDown", err)
	}
}

func TestExpenseService_Close(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Error("Close should close the publisher")
	}
}
