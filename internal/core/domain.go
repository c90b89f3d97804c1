package core

import (
	"errors"
	"strings"
)

// DefaultCategory is the category a cleared form falls back to.
const DefaultCategory = "Groceries"

// SuggestedCategories are offered by the clients. The store accepts any text.
var SuggestedCategories = []string{
	"Groceries",
	"Utilities",
	"Entertainment",
	"Transportation",
	"Other",
}

type (
	// Expense is a stored expense record. ID is assigned by the store.
	Expense struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Amount   Amount `json:"amount"`
		Category string `json:"category"`
	}

	// ExpenseInput carries the raw fields of a create or update request.
	ExpenseInput struct {
		Name     string `json:"name"`
		Amount   string `json:"amount"`
		Category string `json:"category"`
	}
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("expense not found")

	ErrMissingFields = errors.New("all fields are required")
)

// ValidationError reports which required fields were missing.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks that name, amount and category are all present and
// returns the parsed expense (without an id). Whitespace-only counts as
// missing; present values are stored as given.
func (in ExpenseInput) Validate() (Expense, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Amount) == "" {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(in.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return Expense{}, &ValidationError{Fields: missing, Err: ErrMissingFields}
	}

	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Expense{}, &ValidationError{Fields: []string{"amount"}, Err: err}
	}

	return Expense{
		Name:     in.Name,
		Amount:   amount,
		Category: in.Category,
	}, nil
}

// Input returns the record's editable fields in request form.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Name:     e.Name,
		Amount:   e.Amount.String(),
		Category: e.Category,
	}
}
