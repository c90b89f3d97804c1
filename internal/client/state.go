package client

import (
	"context"
	"strings"

	"expenses/internal/core"
)

const (
	// MsgFieldsRequired is shown, and no request sent, when a form field is empty.
	MsgFieldsRequired = "Please fill in all fields"
	// MsgRequestFailed replaces the detail of any failed API call.
	MsgRequestFailed = "Something went wrong. Please try again."
)

// API is the subset of *Client the state handlers use.
type API interface {
	List(ctx context.Context) Result[[]core.Expense]
	Create(ctx context.Context, in core.ExpenseInput) Result[core.Expense]
	Update(ctx context.Context, id int64, in core.ExpenseInput) Result[core.Expense]
	Delete(ctx context.Context, id int64) Result[struct{}]
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// State is the whole client-side application state. Handlers take a State
// and return the next one; nothing else is mutated.
//
// Editing is nil in create mode and points at the record id in edit mode.
// Alert is a blocking message the view must show until dismissed. Error is
// the generic message of the last failed request.
type State struct {
	Expenses []core.Expense
	Editing  *int64
	Form     core.ExpenseInput
	Alert    string
	Error    string
}

// NewState returns the initial state: create mode, empty cache, cleared form.
func NewState() State {
	return State{
		Expenses: []core.Expense{},
		Form:     clearedForm(),
	}
}

func clearedForm() core.ExpenseInput {
	return core.ExpenseInput{Category: core.DefaultCategory}
}

func (s State) Mode() Mode {
	if s.Editing != nil {
		return ModeEdit
	}
	return ModeCreate
}

// DismissAlert clears a pending alert.
func (s State) DismissAlert() State {
	s.Alert = ""
	return s
}

// WithForm replaces the form contents.
func (s State) WithForm(in core.ExpenseInput) State {
	s.Form = in
	return s
}

// Refresh replaces the cached list with the server's. On failure the cache
// is kept and Error is set.
func Refresh(ctx context.Context, api API, s State) State {
	res := api.List(ctx)
	if !res.OK() {
		s.Error = MsgRequestFailed
		return s
	}
	s.Expenses = res.Value
	s.Error = ""
	return s
}

// Edit copies e into the form and enters edit mode for e.ID.
func Edit(s State, e core.Expense) State {
	id := e.ID
	s.Editing = &id
	s.Form = e.Input()
	s.Error = ""
	return s
}

// Submit creates or updates depending on the mode. A form with an empty
// field sets Alert and sends nothing. On success the form is cleared, the
// state returns to create mode and the cache is refreshed.
func Submit(ctx context.Context, api API, s State) State {
	if formIncomplete(s.Form) {
		s.Alert = MsgFieldsRequired
		return s
	}

	var err error
	if s.Editing == nil {
		err = api.Create(ctx, s.Form).Err
	} else {
		err = api.Update(ctx, *s.Editing, s.Form).Err
	}
	if err != nil {
		s.Error = MsgRequestFailed
		return s
	}

	s.Editing = nil
	s.Form = clearedForm()
	return Refresh(ctx, api, s)
}

// Delete removes id and refreshes. The mode is left as it is.
func Delete(ctx context.Context, api API, s State, id int64) State {
	if !api.Delete(ctx, id).OK() {
		s.Error = MsgRequestFailed
		return s
	}
	return Refresh(ctx, api, s)
}

func formIncomplete(in core.ExpenseInput) bool {
	return strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Amount) == "" ||
		strings.TrimSpace(in.Category) == ""
}
