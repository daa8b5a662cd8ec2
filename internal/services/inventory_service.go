package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zeendr/internal/core"
	"zeendr/internal/costing"
	"zeendr/internal/storage"
)

// InventoryService owns the product catalog, stock levels and recipe
// costing.
type InventoryService struct {
	repo *storage.SQLiteRepository
	events
	now func() time.Time
}

func NewInventoryService(repo *storage.SQLiteRepository, inv Invalidator) *InventoryService {
	return &InventoryService{repo: repo, events: events{inv: inv}, now: time.Now}
}

func (s *InventoryService) Products(ctx context.Context, search string) ([]core.Product, error) {
	return s.repo.Queries().ListProducts(ctx, search)
}

func (s *InventoryService) Product(ctx context.Context, id int64) (core.Product, error) {
	return s.repo.Queries().GetProduct(ctx, id)
}

// SaveProduct creates the product when p.ID is zero and updates it
// otherwise. The stored cost is recomputed from the recipe.
func (s *InventoryService) SaveProduct(ctx context.Context, p core.Product) (core.Product, error) {
	if p.UnitsProduced == 0 {
		p.UnitsProduced = 1
	}
	if err := p.Validate(); err != nil {
		return core.Product{}, invalid(err)
	}
	if len(p.Recipe) > 0 {
		calc, err := s.calculator(ctx)
		if err != nil {
			return core.Product{}, err
		}
		p.Cost = calc.UnitCost(p.Recipe, p.UnitsProduced).Display
	}

	q := s.repo.Queries()
	if p.ID == 0 {
		id, err := q.CreateProduct(ctx, p)
		if err != nil {
			return core.Product{}, fmt.Errorf("create product: %w", err)
		}
		p.ID = id
	} else if err := q.UpdateProduct(ctx, p); err != nil {
		return core.Product{}, fmt.Errorf("update product: %w", err)
	}
	slog.InfoContext(ctx, "Product saved", "id", p.ID, "name", p.Name)
	s.changed()
	return p, nil
}

func (s *InventoryService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.Queries().DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.changed()
	return nil
}

// SetStock sets the absolute stock of a product.
func (s *InventoryService) SetStock(ctx context.Context, id, stock int64) (core.Product, error) {
	if stock < 0 {
		return core.Product{}, invalid(core.ErrInvalidQuantity)
	}
	if err := s.repo.Queries().SetProductStock(ctx, id, stock); err != nil {
		return core.Product{}, err
	}
	return s.repo.Queries().GetProduct(ctx, id)
}

// Move applies an inventory movement; it fails as a whole when any product
// would end with negative stock.
func (s *InventoryService) Move(ctx context.Context, m core.InventoryMovement) (core.InventoryMovement, error) {
	if err := m.Validate(); err != nil {
		return core.InventoryMovement{}, invalid(err)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = core.NewTimestamp(s.now())
	}
	return s.repo.ApplyMovement(ctx, m)
}

func (s *InventoryService) Movements(ctx context.Context, limit int) ([]core.InventoryMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.Queries().ListMovements(ctx, limit)
}

// CostRequest is an ad hoc recipe to cost.
type CostRequest struct {
	Lines         []core.RecipeLine `json:"insumos"`
	UnitsProduced int64             `json:"unidades_producidas"`
}

func (s *InventoryService) Cost(ctx context.Context, req CostRequest) (costing.Breakdown, error) {
	calc, err := s.calculator(ctx)
	if err != nil {
		return costing.Breakdown{}, err
	}
	return calc.UnitCost(req.Lines, req.UnitsProduced), nil
}

// ProductCost costs a stored product and reports its margin at the sale
// price.
func (s *InventoryService) ProductCost(ctx context.Context, id int64) (costing.ProductCost, error) {
	p, err := s.repo.Queries().GetProduct(ctx, id)
	if err != nil {
		return costing.ProductCost{}, err
	}
	calc, err := s.calculator(ctx)
	if err != nil {
		return costing.ProductCost{}, err
	}
	return calc.Product(p), nil
}

func (s *InventoryService) calculator(ctx context.Context) (*costing.Calculator, error) {
	supplies, err := s.repo.Queries().ListSupplies(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load supplies: %w", err)
	}
	return costing.NewCalculator(supplies), nil
}
