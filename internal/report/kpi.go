package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"zeendr/internal/core"
)

const TopProductsLimit = 5

// ProductNames maps order line references to product names.
type ProductNames map[core.ProductRef]string

func NamesFromProducts(products []core.Product) ProductNames {
	names := make(ProductNames, len(products))
	for _, p := range products {
		names[core.ProductRefOf(p.ID)] = p.Name
	}
	return names
}

// Name falls back to the raw reference for unknown products.
func (n ProductNames) Name(ref core.ProductRef) string {
	if name, ok := n[ref]; ok {
		return name
	}
	return string(ref)
}

type TopProduct struct {
	Name     string `json:"nombre"`
	Quantity int64  `json:"cantidad"`
}

// Label renders "name: quantity" as the KPI card shows it.
func (p TopProduct) Label() string {
	return fmt.Sprintf("%s: %d", p.Name, p.Quantity)
}

// TopProducts ranks products by summed quantity, descending. Ties keep the
// order in which products were first seen. limit <= 0 returns every product.
func TopProducts(orders []core.Order, names ProductNames, limit int) []TopProduct {
	counts := map[string]int64{}
	var seen []string
	for _, o := range orders {
		for _, l := range o.Lines {
			name := names.Name(l.ProductID)
			if _, ok := counts[name]; !ok {
				seen = append(seen, name)
			}
			counts[name] += l.Qty()
		}
	}

	out := make([]TopProduct, 0, len(seen))
	for _, name := range seen {
		out = append(out, TopProduct{Name: name, Quantity: counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Quantity > out[j].Quantity })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AverageTicket is total / orders, defined as 0 without orders.
func AverageTicket(total core.Money, orders int) core.Money {
	if orders == 0 {
		return core.Money{}
	}
	return total.Div(decimal.NewFromInt(int64(orders)))
}

type MonthKPI struct {
	Month         string       `json:"mes"`
	Name          string       `json:"nombre"`
	TotalSales    core.Money   `json:"total_ventas"`
	Orders        int          `json:"numero_pedidos"`
	AverageTicket core.Money   `json:"ticket_promedio"`
	TopProducts   []TopProduct `json:"top_productos"`
	TopLabels     []string     `json:"top_5"`
}

// KPIsForMonth computes the KPI cards of one "YYYY-MM" month over
// confirmed and sent orders. Sales count product totals only.
func KPIsForMonth(orders []core.Order, names ProductNames, month string) MonthKPI {
	var selected []core.Order
	total := core.Money{}
	for _, o := range orders {
		if !o.Status.CountsAsRevenue() || o.CreatedAt.MonthKey() != month {
			continue
		}
		selected = append(selected, o)
		total = total.Add(o.ProductsTotal)
	}

	top := TopProducts(selected, names, TopProductsLimit)
	labels := make([]string, len(top))
	for i, p := range top {
		labels[i] = p.Label()
	}

	kpi := MonthKPI{
		Month:         month,
		TotalSales:    total,
		Orders:        len(selected),
		AverageTicket: AverageTicket(total, len(selected)),
		TopProducts:   top,
		TopLabels:     labels,
	}
	if t, err := time.Parse("2006-01", month); err == nil {
		kpi.Name = MonthNames[t.Month()-1]
	}
	return kpi
}

// KPIComparison puts a month next to the month before it.
type KPIComparison struct {
	Current  MonthKPI `json:"actual"`
	Previous MonthKPI `json:"anterior"`
}

// CompareMonths computes KPIs for year/month and the previous month.
func CompareMonths(orders []core.Order, names ProductNames, year int, month time.Month) KPIComparison {
	cur := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	prev := cur.AddDate(0, -1, 0)
	return KPIComparison{
		Current:  KPIsForMonth(orders, names, cur.Format("2006-01")),
		Previous: KPIsForMonth(orders, names, prev.Format("2006-01")),
	}
}

// ProductSale is the sales value of one product and its share of the total.
type ProductSale struct {
	Name  string     `json:"nombre"`
	Value core.Money `json:"valor"`
	Share float64    `json:"porcentaje"`
}

// SalesByProduct values each line at its custom price, or the catalog sale
// price when none was set, and reports each product's share. Products are
// listed in first-seen order.
func SalesByProduct(orders []core.Order, catalog map[core.ProductRef]core.Product) []ProductSale {
	values := map[string]core.Money{}
	var seen []string
	total := core.Money{}
	for _, o := range orders {
		if !o.Status.CountsAsRevenue() {
			continue
		}
		for _, l := range o.Lines {
			name := string(l.ProductID)
			var unit core.Money
			if p, ok := catalog[l.ProductID]; ok {
				name = p.Name
				unit = p.SalePrice()
			}
			if l.CustomPrice != nil {
				unit = *l.CustomPrice
			}
			v := unit.MulInt(l.Qty())
			if _, ok := values[name]; !ok {
				seen = append(seen, name)
			}
			values[name] = values[name].Add(v)
			total = total.Add(v)
		}
	}

	out := make([]ProductSale, 0, len(seen))
	for _, name := range seen {
		share := 0.0
		if !total.IsZero() {
			share = values[name].Decimal().DivRound(total.Decimal(), 8).
				Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
		out = append(out, ProductSale{Name: name, Value: values[name], Share: share})
	}
	return out
}
