package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expenses/internal/core"
)

// EventType names a change to the expenses table.
type EventType string

const (
	EventCreated EventType = "expense.created"
	EventUpdated EventType = "expense.updated"
	EventDeleted EventType = "expense.deleted"
)

// ExpenseEvent is published after every successful write. Created and
// updated events carry the full record, deleted events only the id.
type ExpenseEvent struct {
	Type      EventType     `json:"type"`
	ID        int64         `json:"id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewCreatedEvent(e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{Type: EventCreated, ID: e.ID, Expense: &e, Timestamp: time.Now()}
}

func NewUpdatedEvent(e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{Type: EventUpdated, ID: e.ID, Expense: &e, Timestamp: time.Now()}
}

func NewDeletedEvent(id int64) *ExpenseEvent {
	return &ExpenseEvent{Type: EventDeleted, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and checks an event body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("event has invalid id %d", msg.ID)
	}
	switch msg.Type {
	case EventCreated, EventUpdated:
		if msg.Expense == nil {
			return nil, fmt.Errorf("%s event %d has no expense", msg.Type, msg.ID)
		}
	case EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
