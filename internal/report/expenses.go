package report

import (
	"time"

	"zeendr/internal/core"
)

type TypeAmount struct {
	Type   string     `json:"tipo_gasto"`
	Amount core.Money `json:"monto"`
}

// ExpenseSummary compares a month's expenses with the month before and
// breaks the current month down by expense type.
type ExpenseSummary struct {
	Month         string       `json:"mes"`
	Name          string       `json:"nombre"`
	Total         core.Money   `json:"total"`
	PreviousMonth string       `json:"mes_anterior"`
	PreviousName  string       `json:"nombre_anterior"`
	PreviousTotal core.Money   `json:"total_anterior"`
	ByType        []TypeAmount `json:"por_tipo"`
}

// SummarizeExpenses builds the expense cards for year/month.
func SummarizeExpenses(expenses []core.Expense, year int, month time.Month) ExpenseSummary {
	cur := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	prev := cur.AddDate(0, -1, 0)
	curKey, prevKey := cur.Format("2006-01"), prev.Format("2006-01")

	s := ExpenseSummary{
		Month:         curKey,
		Name:          MonthNames[cur.Month()-1],
		PreviousMonth: prevKey,
		PreviousName:  MonthNames[prev.Month()-1],
	}
	var current []core.Expense
	for _, e := range expenses {
		switch e.Date.Format("2006-01") {
		case curKey:
			s.Total = s.Total.Add(e.Amount)
			current = append(current, e)
		case prevKey:
			s.PreviousTotal = s.PreviousTotal.Add(e.Amount)
		}
	}
	s.ByType = ExpensesByType(current)
	return s
}

// ExpensesByType totals expenses per type in first-seen order.
func ExpensesByType(expenses []core.Expense) []TypeAmount {
	idx := map[string]int{}
	var out []TypeAmount
	for _, e := range expenses {
		i, ok := idx[e.Type]
		if !ok {
			idx[e.Type] = len(out)
			out = append(out, TypeAmount{Type: e.Type})
			i = len(out) - 1
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// ExpensesInYear keeps expenses dated in year (0 keeps all).
func ExpensesInYear(expenses []core.Expense, year int) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if !e.Date.IsZero() && inYear(e.Date.Time, year) {
			out = append(out, e)
		}
	}
	return out
}
