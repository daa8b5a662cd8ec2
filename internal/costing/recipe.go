// Package costing computes the unit cost of a product from its recipe.
package costing

import (
	"github.com/shopspring/decimal"

	"zeendr/internal/core"
)

// SkipReason explains why a recipe line did not contribute to the cost.
type SkipReason string

const (
	SkipUnknownSupply SkipReason = "unknown_supply"
	SkipUnknownUnit   SkipReason = "unknown_unit"
)

type LineCost struct {
	Line     core.RecipeLine `json:"linea"`
	Supply   string          `json:"insumo"`
	UnitCost core.Money      `json:"costo_unitario"`
	Cost     core.Money      `json:"costo"`
}

type SkippedLine struct {
	Line   core.RecipeLine `json:"linea"`
	Reason SkipReason      `json:"motivo"`
}

// Breakdown is the result of costing one recipe.
type Breakdown struct {
	Lines         []LineCost    `json:"lineas"`
	Skipped       []SkippedLine `json:"omitidas"`
	BatchCost     core.Money    `json:"costo_lote"`
	UnitsProduced int64         `json:"unidades_producidas"`
	// UnitCost is exact; Display is UnitCost rounded to two decimals.
	UnitCost core.Money `json:"costo_unitario"`
	Display  core.Money `json:"costo"`
}

// Calculator prices recipe lines against a supply catalog.
type Calculator struct {
	supplies map[int64]core.Supply
}

func NewCalculator(supplies []core.Supply) *Calculator {
	idx := make(map[int64]core.Supply, len(supplies))
	for _, s := range supplies {
		idx[s.ID] = s
	}
	return &Calculator{supplies: idx}
}

// UnitCost costs a batch of recipe lines and divides by the units produced.
//
// For grams and milliliters the supply is assumed to be priced per
// kilogram or liter, so the cost per recipe unit is precio/(cantidad*1000);
// for kilograms, liters and pieces it is precio/cantidad. Lines with an
// unknown supply or unit are skipped and reported, never an error.
// unitsProduced values below one are treated as one.
func (c *Calculator) UnitCost(lines []core.RecipeLine, unitsProduced int64) Breakdown {
	if unitsProduced < 1 {
		unitsProduced = 1
	}
	b := Breakdown{UnitsProduced: unitsProduced}

	for _, line := range lines {
		supply, ok := c.supplies[line.SupplyID]
		if !ok {
			b.Skipped = append(b.Skipped, SkippedLine{Line: line, Reason: SkipUnknownSupply})
			continue
		}
		unit, err := core.ParseUnit(string(line.Unit))
		if err != nil {
			b.Skipped = append(b.Skipped, SkippedLine{Line: line, Reason: SkipUnknownUnit})
			continue
		}
		factor, _ := unit.SubUnitFactor()
		perUnit := supply.Price.Div(decimal.NewFromFloat(supply.Quantity).Mul(factor))
		cost := perUnit.Mul(decimal.NewFromFloat(line.Quantity))

		b.Lines = append(b.Lines, LineCost{Line: line, Supply: supply.Name, UnitCost: perUnit, Cost: cost})
		b.BatchCost = b.BatchCost.Add(cost)
	}

	b.UnitCost = b.BatchCost.Div(decimal.NewFromInt(unitsProduced))
	b.Display = b.UnitCost.Round(2)
	return b
}

// ProductCost is the recipe cost of a product next to its sale price.
type ProductCost struct {
	ProductID int64      `json:"producto_id"`
	Name      string     `json:"nombre"`
	SalePrice core.Money `json:"precio_venta"`
	Breakdown Breakdown  `json:"desglose"`
	// Margin is (price - cost) / price * 100, 0 when the price is 0.
	Margin float64 `json:"margen"`
}

// Product costs a catalog product using its stored recipe.
func (c *Calculator) Product(p core.Product) ProductCost {
	b := c.UnitCost(p.Recipe, p.UnitsProduced)
	price := p.SalePrice()
	margin := 0.0
	if !price.IsZero() {
		margin = price.Sub(b.UnitCost).Div(price.Decimal()).Decimal().
			Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return ProductCost{
		ProductID: p.ID,
		Name:      p.Name,
		SalePrice: price,
		Breakdown: b,
		Margin:    margin,
	}
}
