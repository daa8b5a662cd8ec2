package bulk

import (
	"fmt"
	"io"

	"zeendr/internal/core"
)

// ParseExpenses reads an expense upload with the same all-or-nothing
// reporting as ParseOrders. Rows without establecimiento get
// establishment.
func ParseExpenses(r io.Reader, establishment string) ([]core.Expense, error) {
	s, err := open(r, []string{"tipo_gasto", "monto", "fecha"})
	if err != nil {
		return nil, err
	}

	var (
		expenses []core.Expense
		errs     Errors
	)
	for i, row := range s.rows {
		if blankRow(row) {
			continue
		}
		e, err := s.expense(row, establishment)
		if err != nil {
			errs = append(errs, RowError{Row: i + 2, Message: err.Error()})
			continue
		}
		expenses = append(expenses, e)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if len(expenses) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return expenses, nil
}

func (s *sheet) expense(row []string, establishment string) (core.Expense, error) {
	e := core.Expense{
		Type:          s.cell(row, "tipo_gasto"),
		Description:   s.cell(row, "descripcion"),
		Establishment: s.cell(row, "establecimiento"),
	}
	if e.Establishment == "" {
		e.Establishment = establishment
	}

	amount, err := core.ParseAmount(s.cell(row, "monto"))
	if err != nil {
		return core.Expense{}, fmt.Errorf("monto: %w", err)
	}
	e.Amount = amount

	v := s.cell(row, "fecha")
	if v == "" {
		return core.Expense{}, fmt.Errorf("fecha: %w", core.ErrInvalidDate)
	}
	ts, err := parseTime(v)
	if err != nil {
		return core.Expense{}, fmt.Errorf("fecha: %w", err)
	}
	e.Date = core.NewDate(ts.Year(), int(ts.Month()), ts.Day())

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}
