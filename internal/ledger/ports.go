// Package ledger mirrors confirmed orders and expenses into a yearly
// spreadsheet kept by the business owner.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"zeendr/internal/core"
)

// Writer stores one row per record. ref is the reference returned by a
// previous write of the same record ("" when it was never written); the
// returned reference identifies the row for the next update.
type Writer interface {
	UpsertOrder(ctx context.Context, o core.Order, ref string) (string, error)
	UpsertExpense(ctx context.Context, e core.Expense, ref string) (string, error)
}

// Base sheet names; the year is prefixed per row.
const (
	DefaultOrdersSheet   = "Pedidos"
	DefaultExpensesSheet = "Gastos"
)

var (
	OrderHeader   = []string{"ID", "Fecha", "Cliente", "Teléfono", "Barrio", "Método de pago", "Estado", "Total productos", "Domicilio", "Descuento %", "Total final", "Establecimiento"}
	ExpenseHeader = []string{"ID", "Fecha", "Tipo", "Descripción", "Monto", "Establecimiento"}
)

// OrderRow renders an order in OrderHeader column order.
func OrderRow(o core.Order) []any {
	return []any{
		o.ID,
		o.CreatedAt.Format("2006-01-02 15:04"),
		o.CustomerName,
		o.Phone,
		o.Neighborhood,
		o.PaymentMethod,
		string(o.Status),
		o.ProductsTotal.Float64(),
		o.DeliveryFee.Float64(),
		o.DiscountPercent,
		o.Total.Float64(),
		o.Establishment,
	}
}

// ExpenseRow renders an expense in ExpenseHeader column order.
func ExpenseRow(e core.Expense) []any {
	return []any{e.ID, e.Date.String(), e.Type, e.Description, e.Amount.Float64(), e.Establishment}
}

// OrderYear picks the yearly sheet for an order.
func OrderYear(o core.Order) int { return o.CreatedAt.Year() }

// ExpenseYear picks the yearly sheet for an expense.
func ExpenseYear(e core.Expense) int { return e.Date.Year() }

// SheetName returns "<year> <base>" unless base already starts with a
// four digit year.
func SheetName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
