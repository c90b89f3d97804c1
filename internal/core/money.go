// Package core provides the expense record and its money type.
//
// Amounts are kept as decimals rounded to two places, matching the
// numeric(10,2) column they are stored in.
package core

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the fixed number of decimal places of every amount.
const AmountPlaces = 2

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a monetary value with fixed 2-decimal precision.
//
// It marshals to JSON as a string ("3.50") and accepts either a JSON string
// or a JSON number on input.
type Amount struct {
	d decimal.Decimal
}

// NewAmount rounds d to two decimal places.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d.Round(AmountPlaces)}
}

// ParseAmount parses a decimal string such as "3.5" or "12.345".
// Values are rounded half away from zero to two places:
//
//	ParseAmount("3.5")    -> 3.50
//	ParseAmount("12.345") -> 12.35
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewAmount(d), nil
}

// MustParseAmount is ParseAmount for literals known to be valid.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return a.d.StringFixed(AmountPlaces)
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Equal reports whether both amounts have the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = Amount{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Scan implements sql.Scanner. Postgres returns numeric columns as text,
// SQLite may return them as float64 or int64.
func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	*a = NewAmount(d)
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}
