// Package report turns orders and expenses into the figures shown on the
// analytics dashboard: monthly buckets, margins, KPIs and summaries.
//
// Every function here is pure. Callers load the records and pass them in;
// nothing in this package touches storage.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"zeendr/internal/core"
)

var MonthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// FeeTable resolves the delivery fee charged for a neighborhood.
type FeeTable interface {
	Fee(barrio string) core.Money
}

// Months holds one amount per calendar month, January first.
type Months [12]core.Money

func (m Months) Total() core.Money {
	return core.SumMoney(m[:]...)
}

func (m Months) Slice() []core.Money {
	return append([]core.Money(nil), m[:]...)
}

// inYear matches any year when year is 0.
func inYear(t time.Time, year int) bool {
	return year == 0 || t.UTC().Year() == year
}

// OrderRevenue is what an order contributes to monthly sales: its product
// total plus the zone fee of its neighborhood (0 for unknown ones).
func OrderRevenue(o core.Order, fees FeeTable) core.Money {
	rev := o.ProductsTotal
	if fees != nil {
		rev = rev.Add(fees.Fee(o.Neighborhood))
	}
	return rev
}

// RevenueByMonth buckets confirmed and sent orders by the UTC month of
// their creation time.
func RevenueByMonth(orders []core.Order, fees FeeTable, year int) Months {
	var out Months
	for _, o := range orders {
		if !o.Status.CountsAsRevenue() || o.CreatedAt.IsZero() || !inYear(o.CreatedAt.Time, year) {
			continue
		}
		m := o.CreatedAt.UTC().Month() - 1
		out[m] = out[m].Add(OrderRevenue(o, fees))
	}
	return out
}

// ExpensesByMonth buckets expenses by the month of their date. keep may be
// nil to include every expense.
func ExpensesByMonth(expenses []core.Expense, year int, keep func(core.Expense) bool) Months {
	var out Months
	for _, e := range expenses {
		if e.Date.IsZero() || !inYear(e.Date.Time, year) {
			continue
		}
		if keep != nil && !keep(e) {
			continue
		}
		m := e.Date.UTC().Month() - 1
		out[m] = out[m].Add(e.Amount)
	}
	return out
}

// Margin returns (revenue - cost) / revenue * 100 rounded to two decimals,
// and 0 when revenue is 0.
func Margin(revenue, cost core.Money) float64 {
	if revenue.IsZero() {
		return 0
	}
	ratio := revenue.Sub(cost).Decimal().DivRound(revenue.Decimal(), 8)
	return ratio.Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// MonthFigure compares revenue against a cost for one month.
type MonthFigure struct {
	Month   int        `json:"mes"`
	Name    string     `json:"nombre"`
	Revenue core.Money `json:"ventas"`
	Cost    core.Money `json:"gastos"`
	Profit  core.Money `json:"utilidad"`
	Margin  float64    `json:"margen"`
}

// Compare builds twelve month figures from revenue and cost buckets.
func Compare(revenue, cost Months) []MonthFigure {
	out := make([]MonthFigure, 12)
	for i := range out {
		out[i] = MonthFigure{
			Month:   i,
			Name:    MonthNames[i],
			Revenue: revenue[i],
			Cost:    cost[i],
			Profit:  revenue[i].Sub(cost[i]),
			Margin:  Margin(revenue[i], cost[i]),
		}
	}
	return out
}

// Financials is the monthly financial view of one year.
type Financials struct {
	Year int `json:"year"`
	// Profit compares sales against every expense.
	Profit []MonthFigure `json:"utilidad"`
	// GrossMargin only counts supplier and supply expenses.
	GrossMargin     []MonthFigure `json:"margen_bruto"`
	OperatingMargin []MonthFigure `json:"margen_operativo"`
	Income          []core.Money  `json:"ingresos_mensuales"`
	Expenses        []core.Money  `json:"gastos_mensuales"`
	TotalIncome     core.Money    `json:"total_ingresos"`
	TotalExpenses   core.Money    `json:"total_gastos"`
	YearMargin      float64       `json:"margen_anual"`
}

// BuildFinancials computes every monthly series for the given year
// (0 for all years).
func BuildFinancials(orders []core.Order, expenses []core.Expense, fees FeeTable, year int) Financials {
	revenue := RevenueByMonth(orders, fees, year)
	all := ExpensesByMonth(expenses, year, nil)
	cogs := ExpensesByMonth(expenses, year, core.Expense.IsCostOfGoods)

	operating := Compare(revenue, all)
	return Financials{
		Year:            year,
		Profit:          operating,
		GrossMargin:     Compare(revenue, cogs),
		OperatingMargin: operating,
		Income:          revenue.Slice(),
		Expenses:        all.Slice(),
		TotalIncome:     revenue.Total(),
		TotalExpenses:   all.Total(),
		YearMargin:      Margin(revenue.Total(), all.Total()),
	}
}
