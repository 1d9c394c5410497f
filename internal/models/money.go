package models

import (
	"database/sql/driver"

	"github.com/shopspring/decimal"
)

// Money is a fixed-scale monetary amount. Arithmetic comes from the
// embedded decimal.Decimal; what Money adds is rendering: JSON and the
// database always see two fraction digits ("100.00", never "100"),
// matching the DECIMAL(10,2) columns. decimal.Decimal alone won't do -
// its String() trims trailing zeros, so amounts would round-trip as
// "100" depending on how they were computed.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal amount.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MarshalJSON renders the amount as a quoted fixed-scale string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

// Value implements driver.Valuer with the same fixed scale.
func (m Money) Value() (driver.Value, error) {
	return m.StringFixed(2), nil
}
