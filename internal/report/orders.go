package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"zeendr/internal/core"
)

// OrderFilter narrows the delivery board. Zero fields do not filter.
type OrderFilter struct {
	Year  int
	Month time.Month
	// Week is an ISO week number. It matches the order date or the
	// delivery date.
	Week int
	// Date is YYYY-MM-DD and also matches either date.
	Date string
}

// deliveryDay falls back to the order day when no delivery is scheduled.
func deliveryDay(o core.Order) time.Time {
	if !o.DeliveryDate.IsZero() {
		return o.DeliveryDate.Time
	}
	return o.CreatedAt.UTC()
}

func (f OrderFilter) Match(o core.Order) bool {
	created := o.CreatedAt.UTC()
	if f.Year != 0 && created.Year() != f.Year {
		return false
	}
	if f.Month != 0 && created.Month() != f.Month {
		return false
	}
	if f.Week != 0 {
		_, ow := created.ISOWeek()
		_, dw := deliveryDay(o).ISOWeek()
		if ow != f.Week && dw != f.Week {
			return false
		}
	}
	if f.Date != "" {
		orderDay := o.CreatedAt.DayKey()
		delivery := deliveryDay(o).Format("2006-01-02")
		if orderDay != f.Date && delivery != f.Date {
			return false
		}
	}
	return true
}

func FilterOrders(orders []core.Order, f OrderFilter) []core.Order {
	out := make([]core.Order, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// SortForDispatch puts sent orders last and everything else newest first.
func SortForDispatch(orders []core.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		si := orders[i].Status == core.StatusSent
		sj := orders[j].Status == core.StatusSent
		if si != sj {
			return !si
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt.Time)
	})
}

// OrderTotals are the summary cards above the delivery board.
type OrderTotals struct {
	TotalSales    core.Money `json:"totalVentas"`
	ProductsTotal core.Money `json:"totalProductos"`
	DeliveryTotal core.Money `json:"totalDomicilios"`
	Orders        int        `json:"numeroPedidos"`
}

// SummarizeOrders totals confirmed and sent orders using the delivery fee
// recorded on each order.
func SummarizeOrders(orders []core.Order) OrderTotals {
	var t OrderTotals
	for _, o := range orders {
		if !o.Status.CountsAsRevenue() {
			continue
		}
		t.TotalSales = t.TotalSales.Add(o.SaleTotal())
		t.ProductsTotal = t.ProductsTotal.Add(o.ProductsTotal)
		t.DeliveryTotal = t.DeliveryTotal.Add(o.DeliveryFee)
		t.Orders++
	}
	return t
}

// BoardRow is one order as the delivery board lists it.
type BoardRow struct {
	core.Order
	Description string     `json:"descripcion_productos"`
	SaleTotal   core.Money `json:"total_venta"`
}

// Board is the filtered delivery board with its totals and the dates that
// can be picked for further filtering.
type Board struct {
	Rows   []BoardRow  `json:"pedidos"`
	Totals OrderTotals `json:"resumen"`
	Dates  []string    `json:"fechas"`
}

// BuildBoard filters, sorts and summarizes orders for the delivery board.
func BuildBoard(orders []core.Order, names ProductNames, f OrderFilter) Board {
	// Dates come from the month and week selection only.
	dateFilter := f
	dateFilter.Date = ""
	dates := AvailableDates(FilterOrders(orders, dateFilter))

	selected := FilterOrders(orders, f)
	SortForDispatch(selected)

	rows := make([]BoardRow, len(selected))
	for i, o := range selected {
		rows[i] = BoardRow{Order: o, Description: DescribeLines(o.Lines, names), SaleTotal: o.SaleTotal()}
	}
	return Board{Rows: rows, Totals: SummarizeOrders(selected), Dates: dates}
}

// DescribeLines renders "Granola (x2), Yogurt (x1)".
func DescribeLines(lines core.OrderLines, names ProductNames) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%s (x%d)", names.Name(l.ProductID), l.Qty())
	}
	return strings.Join(parts, ", ")
}

// AvailableDates lists the distinct order and delivery days, ascending.
func AvailableDates(orders []core.Order) []string {
	set := map[string]struct{}{}
	for _, o := range orders {
		if d := o.CreatedAt.DayKey(); d != "" {
			set[d] = struct{}{}
		}
		if !o.DeliveryDate.IsZero() {
			set[o.DeliveryDate.String()] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Week is an ISO week overlapping a month.
type Week struct {
	Number int       `json:"semana"`
	Start  core.Date `json:"inicio"`
	End    core.Date `json:"fin"`
	Range  string    `json:"rango"`
}

var shortMonths = [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}

// WeeksInMonth lists the Monday to Sunday ISO weeks that overlap the month.
func WeeksInMonth(year int, month time.Month) []Week {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	offset := (int(first.Weekday()) + 6) % 7
	start := first.AddDate(0, 0, -offset)

	var weeks []Week
	for !start.After(last) {
		end := start.AddDate(0, 0, 6)
		_, n := start.ISOWeek()
		weeks = append(weeks, Week{
			Number: n,
			Start:  core.NewDate(start.Year(), int(start.Month()), start.Day()),
			End:    core.NewDate(end.Year(), int(end.Month()), end.Day()),
			Range: fmt.Sprintf("%d %s - %d %s",
				start.Day(), shortMonths[start.Month()-1], end.Day(), shortMonths[end.Month()-1]),
		})
		start = start.AddDate(0, 0, 7)
	}
	return weeks
}

// DispatchLine is the total quantity of one product to prepare.
type DispatchLine struct {
	ProductID core.ProductRef `json:"id"`
	Name      string          `json:"nombre"`
	Quantity  int64           `json:"totalQuantity"`
}

const UnknownProductName = "Producto desconocido"

// DispatchSummary totals product quantities across orders, in first-seen
// order.
func DispatchSummary(orders []core.Order, names ProductNames) []DispatchLine {
	idx := map[core.ProductRef]int{}
	var out []DispatchLine
	for _, o := range orders {
		for _, l := range o.Lines {
			i, ok := idx[l.ProductID]
			if !ok {
				name, known := names[l.ProductID]
				if !known {
					name = UnknownProductName
				}
				idx[l.ProductID] = len(out)
				out = append(out, DispatchLine{ProductID: l.ProductID, Name: name})
				i = len(out) - 1
			}
			out[i].Quantity += l.Qty()
		}
	}
	return out
}

// TransactionCount is the number of revenue orders in a period.
type TransactionCount struct {
	Period string `json:"periodo"`
	Count  int    `json:"cantidad"`
}

type Grouping string

const (
	GroupByDay   Grouping = "day"
	GroupByMonth Grouping = "month"
)

// TransactionCounts counts confirmed and sent orders per day or month of
// the year, ascending by period.
func TransactionCounts(orders []core.Order, year int, g Grouping) []TransactionCount {
	counts := map[string]int{}
	for _, o := range orders {
		if !o.Status.CountsAsRevenue() || o.CreatedAt.IsZero() || !inYear(o.CreatedAt.Time, year) {
			continue
		}
		key := o.CreatedAt.DayKey()
		if g == GroupByMonth {
			key = o.CreatedAt.MonthKey()
		}
		counts[key]++
	}
	out := make([]TransactionCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, TransactionCount{Period: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// ClientSummary aggregates the orders placed from one phone number.
type ClientSummary struct {
	Name          string     `json:"nombre_completo"`
	Phone         string     `json:"numero_telefono"`
	Email         string     `json:"correo_electronico"`
	TotalSpent    core.Money `json:"total_gastado"`
	ProductsSpent core.Money `json:"total_productos_gastado"`
	Orders        int        `json:"numero_pedidos"`
	AverageTicket core.Money `json:"ticket_promedio"`
}

// SummarizeClients groups orders by phone number. Spending counts products
// plus the zone fee, like monthly sales. Clients keep first-seen order.
func SummarizeClients(orders []core.Order, fees FeeTable) []ClientSummary {
	idx := map[string]int{}
	var out []ClientSummary
	for _, o := range orders {
		i, ok := idx[o.Phone]
		if !ok {
			idx[o.Phone] = len(out)
			out = append(out, ClientSummary{Name: o.CustomerName, Phone: o.Phone, Email: o.Email})
			i = len(out) - 1
		}
		c := &out[i]
		c.TotalSpent = c.TotalSpent.Add(OrderRevenue(o, fees))
		c.ProductsSpent = c.ProductsSpent.Add(o.ProductsTotal)
		c.Orders++
	}
	for i := range out {
		out[i].AverageTicket = AverageTicket(out[i].ProductsSpent, out[i].Orders)
	}
	return out
}
