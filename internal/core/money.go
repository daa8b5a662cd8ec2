// Package core holds the Zeendr domain model.
//
// This file contains the Money type used for every peso amount in the
// system, plus parsing and es-CO display formatting.
package core

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact amount of Colombian pesos.
// The zero value is $0.
type Money struct {
	amount decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Pesos builds a Money from a whole peso amount.
func Pesos(v int64) Money {
	return Money{amount: decimal.NewFromInt(v)}
}

// MoneyFromFloat converts a float, as sent by JSON clients, to Money.
func MoneyFromFloat(f float64) Money {
	return Money{amount: decimal.NewFromFloat(f)}
}

// MoneyFromDecimal wraps a decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{amount: d}
}

// ParseAmount parses a user supplied amount.
//
// It accepts plain numbers ("12500", "12500.5") and es-CO formatted
// input ("$12.500", "12.500,50"). When both separators are present the
// last one is the decimal separator; a lone "." followed by exactly three
// digits is read as a thousands separator.
//
//	ParseAmount("$1.000")    -> 1000
//	ParseAmount("1.000,5")   -> 1000.5
//	ParseAmount("2500.75")   -> 2500.75
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{amount: d}, nil
}

func (m Money) Add(o Money) Money { return Money{amount: m.amount.Add(o.amount)} }
func (m Money) Sub(o Money) Money { return Money{amount: m.amount.Sub(o.amount)} }

// Mul multiplies by a plain quantity.
func (m Money) Mul(q decimal.Decimal) Money { return Money{amount: m.amount.Mul(q)} }

// MulInt multiplies by an integer quantity.
func (m Money) MulInt(n int64) Money { return Money{amount: m.amount.Mul(decimal.NewFromInt(n))} }

// Div divides by a plain quantity. Dividing by zero yields zero.
func (m Money) Div(q decimal.Decimal) Money {
	if q.IsZero() {
		return Money{}
	}
	return Money{amount: m.amount.DivRound(q, 8)}
}

// Percent returns pct percent of m.
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(pct).Div(hundred)}
}

// LessPercent returns m reduced by pct percent.
func (m Money) LessPercent(pct decimal.Decimal) Money {
	return m.Sub(m.Percent(pct))
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) Cmp(o Money) int  { return m.amount.Cmp(o.amount) }
func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

// Decimal exposes the underlying exact value.
func (m Money) Decimal() decimal.Decimal { return m.amount }

// Float64 is for chart payloads only; do not compute with it.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// Round returns the amount rounded half away from zero to places decimals.
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places)}
}

// String returns the plain decimal representation ("1500.5").
func (m Money) String() string { return m.amount.String() }

// Format renders m the way the es-CO COP locale does with zero decimals.
func (m Money) Format() string { return FormatCOP(m) }

// FormatCOP renders pesos with "." grouping and no decimals.
//
//	FormatCOP(Pesos(1000))     -> "$1.000"
//	FormatCOP(Pesos(-2500000)) -> "-$2.500.000"
func FormatCOP(m Money) string {
	rounded := m.amount.Round(0)
	neg := rounded.IsNegative()
	digits := rounded.Abs().StringFixed(0)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// MarshalJSON writes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.amount.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings, and null.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*m = Money{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		parsed, err := ParseAmount(strings.Trim(s, `"`))
		if err != nil {
			return fmt.Errorf("parse amount %s: %w", s, err)
		}
		*m = parsed
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse amount %s: %w", s, ErrInvalidAmount)
	}
	m.amount = d
	return nil
}

// Value stores money as TEXT so SQLite keeps it exact.
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan reads money stored as TEXT, INTEGER or REAL.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.amount = d
	return nil
}

// SumMoney adds up a list of amounts.
func SumMoney(values ...Money) Money {
	var total Money
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
