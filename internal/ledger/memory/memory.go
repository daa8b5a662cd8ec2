// Package memory is an in-process ledger used in development and tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"zeendr/internal/core"
	"zeendr/internal/ledger"
)

var _ ledger.Writer = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	writes int
}

func New() *Store {
	return &Store{sheets: map[string][][]any{}}
}

func (s *Store) UpsertOrder(_ context.Context, o core.Order, ref string) (string, error) {
	if o.ID <= 0 {
		return "", fmt.Errorf("order without id")
	}
	return s.upsert(ledger.SheetName(ledger.DefaultOrdersSheet, ledger.OrderYear(o)), ref, ledger.OrderRow(o))
}

func (s *Store) UpsertExpense(_ context.Context, e core.Expense, ref string) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	return s.upsert(ledger.SheetName(ledger.DefaultExpensesSheet, ledger.ExpenseYear(e)), ref, ledger.ExpenseRow(e))
}

// upsert replaces the row named by ref when it belongs to sheet, otherwise
// appends. References look like "mem:<sheet>:<row>".
func (s *Store) upsert(sheet, ref string, row []any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++

	if name, idx, ok := parseRef(ref); ok && name == sheet && idx < len(s.sheets[sheet]) {
		s.sheets[sheet][idx] = row
		return ref, nil
	}
	s.sheets[sheet] = append(s.sheets[sheet], row)
	return fmt.Sprintf("mem:%s:%d", sheet, len(s.sheets[sheet])-1), nil
}

func parseRef(ref string) (string, int, bool) {
	rest, ok := strings.CutPrefix(ref, "mem:")
	if !ok {
		return "", 0, false
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(rest[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return rest[:i], n, true
}

// Rows returns a copy of the rows written to sheet.
func (s *Store) Rows(sheet string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.sheets[sheet]...)
}

// Writes counts every upsert call that reached the store.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
