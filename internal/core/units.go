package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Unit is a measurement unit for supplies and recipe lines.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPieces     Unit = "unidades"
)

var ErrInvalidUnit = errors.New("invalid unit")

// ParseUnit accepts only the exact unit names. Spelling variants such as
// "gr", "G" or "unidad" are rejected so recipe costing skips those lines.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitPieces:
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

// SubUnitFactor is how many recipe units make up one purchase unit:
// 1000 for grams and milliliters, 1 for kilograms, liters and pieces.
func (u Unit) SubUnitFactor() (decimal.Decimal, bool) {
	switch u {
	case UnitGram, UnitMilliliter:
		return decimal.NewFromInt(1000), true
	case UnitKilogram, UnitLiter, UnitPieces:
		return decimal.NewFromInt(1), true
	}
	return decimal.Zero, false
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
