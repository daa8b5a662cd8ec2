package storage

import (
	"context"

	"zeendr/internal/core"
)

const expenseColumns = `id, type, description, amount, date, establishment`

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e    core.Expense
		date string
	)
	if err := row.Scan(&e.ID, &e.Type, &e.Description, &e.Amount, &date, &e.Establishment); err != nil {
		return core.Expense{}, err
	}
	e.Date = parseDateText(date)
	return e, nil
}

func (q *Queries) collectExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return q.collectExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC`)
}

// ListExpensesByPrefix returns expenses whose date starts with prefix
// ("2024" or "2024-05").
func (q *Queries) ListExpensesByPrefix(ctx context.Context, prefix string) ([]core.Expense, error) {
	return q.collectExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE date LIKE ? ORDER BY date DESC, id DESC`, prefix+"%")
}

func (q *Queries) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := scanExpense(q.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if err != nil {
		return core.Expense{}, notFound(err, "expense", id)
	}
	return e, nil
}

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO expenses (type, description, amount, date, establishment)
		VALUES (?, ?, ?, ?, ?)`, e.Type, e.Description, e.Amount, e.Date.String(), e.Establishment)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := q.db.ExecContext(ctx, `UPDATE expenses SET type = ?, description = ?, amount = ?,
		date = ?, establishment = ?, ledger_synced = 0 WHERE id = ?`,
		e.Type, e.Description, e.Amount, e.Date.String(), e.Establishment, e.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, "expense", e.ID)
}

func (q *Queries) DeleteExpense(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "expense", id)
}

func (q *Queries) ListExpenseTypes(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT DISTINCT type FROM expenses ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queries) PendingLedgerExpenses(ctx context.Context, limit int) ([]int64, error) {
	return q.collectIDs(ctx, `SELECT id FROM expenses WHERE ledger_synced = 0 ORDER BY sync_attempts, id LIMIT ?`, limit)
}

func (q *Queries) ExpenseLedgerRef(ctx context.Context, id int64) (string, error) {
	var ref string
	err := q.db.QueryRowContext(ctx, `SELECT ledger_ref FROM expenses WHERE id = ?`, id).Scan(&ref)
	if err != nil {
		return "", notFound(err, "expense", id)
	}
	return ref, nil
}

func (q *Queries) OrderLedgerRef(ctx context.Context, id int64) (string, error) {
	var ref string
	err := q.db.QueryRowContext(ctx, `SELECT ledger_ref FROM orders WHERE id = ?`, id).Scan(&ref)
	if err != nil {
		return "", notFound(err, "order", id)
	}
	return ref, nil
}

func (q *Queries) MarkExpenseSynced(ctx context.Context, id int64, ref string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE expenses SET ledger_synced = 1, ledger_ref = ? WHERE id = ?`, ref, id)
	return err
}

func (q *Queries) MarkExpenseSyncFailed(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE expenses SET sync_attempts = sync_attempts + 1 WHERE id = ?`, id)
	return err
}
