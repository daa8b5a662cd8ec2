package services

import (
	"context"
	"fmt"
	"log/slog"

	"zeendr/internal/amqp"
	"zeendr/internal/core"
	"zeendr/internal/storage"
)

// ExpenseService orchestrates expense operations across SQLite and AMQP
type ExpenseService struct {
	storage *storage.SQLiteRepository
	events
}

func NewExpenseService(storage *storage.SQLiteRepository, pub Publisher, inv Invalidator) *ExpenseService {
	return &ExpenseService{
		storage: storage,
		events:  events{pub: pub, inv: inv},
	}
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	return s.storage.Queries().ListExpenses(ctx)
}

// Types lists the expense types in use, for the form's suggestions.
func (s *ExpenseService) Types(ctx context.Context) ([]string, error) {
	return s.storage.Queries().ListExpenseTypes(ctx)
}

// Create saves an expense locally and publishes a ledger sync message
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, invalid(err)
	}
	id, err := s.storage.Queries().CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id
	slog.InfoContext(ctx, "Expense saved", "id", id, "type", e.Type, "amount", e.Amount.String())

	s.changed()
	s.ledgerSync(ctx, amqp.EntityExpense, id)
	return e, nil
}

func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, invalid(err)
	}
	if err := s.storage.Queries().UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.changed()
	s.ledgerSync(ctx, amqp.EntityExpense, e.ID)
	return e, nil
}

// Delete removes the expense. A row already mirrored to the ledger stays
// there.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.Queries().DeleteExpense(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	s.changed()
	return nil
}

// Import validates every expense before storing any of them.
func (s *ExpenseService) Import(ctx context.Context, expenses []core.Expense) ([]int64, error) {
	for i, e := range expenses {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, invalid(err))
		}
	}
	ids, err := s.storage.ImportExpenses(ctx, expenses)
	if err != nil {
		return nil, fmt.Errorf("import expenses: %w", err)
	}
	s.changed()
	for _, id := range ids {
		s.ledgerSync(ctx, amqp.EntityExpense, id)
	}
	return ids, nil
}
