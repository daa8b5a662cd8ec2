package services

import (
	"context"
	"fmt"
	"log/slog"

	"zeendr/internal/core"
	"zeendr/internal/delivery"
	"zeendr/internal/storage"
)

// CatalogService covers the plain CRUD screens: clients, suppliers and
// their products, categories, coupons and the shop parameters.
type CatalogService struct {
	repo  *storage.SQLiteRepository
	zones *delivery.Table
	events
}

func NewCatalogService(repo *storage.SQLiteRepository, zones *delivery.Table, inv Invalidator) *CatalogService {
	return &CatalogService{repo: repo, zones: zones, events: events{inv: inv}}
}

// save validates a record and creates it when id is zero or updates it
// otherwise, returning the record id.
func (s *CatalogService) save(ctx context.Context, what string, id int64, validate func() error,
	create func() (int64, error), update func() error) (int64, error) {
	if err := validate(); err != nil {
		return 0, invalid(err)
	}
	if id == 0 {
		newID, err := create()
		if err != nil {
			return 0, fmt.Errorf("create %s: %w", what, err)
		}
		id = newID
	} else if err := update(); err != nil {
		return 0, fmt.Errorf("update %s: %w", what, err)
	}
	slog.DebugContext(ctx, "Record saved", "kind", what, "id", id)
	s.changed()
	return id, nil
}

func (s *CatalogService) remove(err error) error {
	if err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *CatalogService) Clients(ctx context.Context, search string) ([]core.Client, error) {
	return s.repo.Queries().ListClients(ctx, search)
}

// SaveClient creates a client or updates it. New clients are upserted by
// phone number, the same way orders record their customer.
func (s *CatalogService) SaveClient(ctx context.Context, c core.Client) (core.Client, error) {
	q := s.repo.Queries()
	id, err := s.save(ctx, "client", c.ID, c.Validate,
		func() (int64, error) { return q.UpsertClient(ctx, c) },
		func() error { return q.UpdateClient(ctx, c) })
	c.ID = id
	return c, err
}

func (s *CatalogService) DeleteClient(ctx context.Context, id int64) error {
	return s.remove(s.repo.Queries().DeleteClient(ctx, id))
}

func (s *CatalogService) Suppliers(ctx context.Context, search string) ([]core.Supplier, error) {
	return s.repo.Queries().ListSuppliers(ctx, search)
}

func (s *CatalogService) SaveSupplier(ctx context.Context, v core.Supplier) (core.Supplier, error) {
	q := s.repo.Queries()
	id, err := s.save(ctx, "supplier", v.ID, v.Validate,
		func() (int64, error) { return q.CreateSupplier(ctx, v) },
		func() error { return q.UpdateSupplier(ctx, v) })
	v.ID = id
	return v, err
}

func (s *CatalogService) DeleteSupplier(ctx context.Context, id int64) error {
	return s.remove(s.repo.Queries().DeleteSupplier(ctx, id))
}

// Supplies lists supplier products, the ingredients used by recipes.
func (s *CatalogService) Supplies(ctx context.Context, search string) ([]core.Supply, error) {
	return s.repo.Queries().ListSupplies(ctx, search)
}

func (s *CatalogService) SaveSupply(ctx context.Context, v core.Supply) (core.Supply, error) {
	q := s.repo.Queries()
	id, err := s.save(ctx, "supply", v.ID, v.Validate,
		func() (int64, error) { return q.CreateSupply(ctx, v) },
		func() error { return q.UpdateSupply(ctx, v) })
	v.ID = id
	return v, err
}

func (s *CatalogService) DeleteSupply(ctx context.Context, id int64) error {
	return s.remove(s.repo.Queries().DeleteSupply(ctx, id))
}

func (s *CatalogService) Categories(ctx context.Context, kind core.CategoryKind, search string) ([]core.Category, error) {
	return s.repo.Queries().ListCategories(ctx, kind, search)
}

func (s *CatalogService) SaveCategory(ctx context.Context, c core.Category) (core.Category, error) {
	q := s.repo.Queries()
	id, err := s.save(ctx, "category", c.ID, c.Validate,
		func() (int64, error) { return q.CreateCategory(ctx, c) },
		func() error { return q.UpdateCategory(ctx, c) })
	c.ID = id
	return c, err
}

func (s *CatalogService) DeleteCategory(ctx context.Context, kind core.CategoryKind, id int64) error {
	return s.remove(s.repo.Queries().DeleteCategory(ctx, kind, id))
}

func (s *CatalogService) Coupons(ctx context.Context, search string) ([]core.Coupon, error) {
	return s.repo.Queries().ListCoupons(ctx, search)
}

func (s *CatalogService) SaveCoupon(ctx context.Context, c core.Coupon) (core.Coupon, error) {
	q := s.repo.Queries()
	id, err := s.save(ctx, "coupon", c.ID, c.Validate,
		func() (int64, error) { return q.CreateCoupon(ctx, c) },
		func() error { return q.UpdateCoupon(ctx, c) })
	c.ID = id
	return c, err
}

func (s *CatalogService) DeleteCoupon(ctx context.Context, id int64) error {
	return s.remove(s.repo.Queries().DeleteCoupon(ctx, id))
}

func (s *CatalogService) PaymentMethods(ctx context.Context, search string) ([]core.PaymentMethod, error) {
	return s.repo.Queries().ListPaymentMethods(ctx, search)
}

func (s *CatalogService) SavePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	q := s.repo.Queries()
	id, err := s.save(ctx, "payment method", p.ID, p.Validate,
		func() (int64, error) { return q.CreatePaymentMethod(ctx, p) },
		func() error { return q.UpdatePaymentMethod(ctx, p) })
	p.ID = id
	return p, err
}

func (s *CatalogService) DeletePaymentMethod(ctx context.Context, id int64) error {
	return s.remove(s.repo.Queries().DeletePaymentMethod(ctx, id))
}

func (s *CatalogService) Hours(ctx context.Context) ([]core.BusinessHours, error) {
	return s.repo.Queries().ListBusinessHours(ctx)
}

// SetHours replaces the opening hours of the given weekdays.
func (s *CatalogService) SetHours(ctx context.Context, hours []core.BusinessHours) ([]core.BusinessHours, error) {
	for _, h := range hours {
		if err := h.Validate(); err != nil {
			return nil, invalid(err)
		}
	}
	for _, h := range hours {
		if err := s.repo.Queries().SetBusinessHours(ctx, h); err != nil {
			return nil, fmt.Errorf("set hours for day %d: %w", h.Day, err)
		}
	}
	return s.Hours(ctx)
}

func (s *CatalogService) Messages(ctx context.Context) ([]core.MessageTemplate, error) {
	return s.repo.Queries().ListMessageTemplates(ctx)
}

// SetMessages stores the customer message text of each given status.
func (s *CatalogService) SetMessages(ctx context.Context, templates []core.MessageTemplate) ([]core.MessageTemplate, error) {
	for _, m := range templates {
		if err := m.Validate(); err != nil {
			return nil, invalid(err)
		}
	}
	for _, m := range templates {
		if err := s.repo.Queries().SetMessageTemplate(ctx, m); err != nil {
			return nil, fmt.Errorf("set message for %q: %w", m.Status, err)
		}
	}
	return s.Messages(ctx)
}

func (s *CatalogService) DeliveryPrice(ctx context.Context) (core.Money, error) {
	return s.repo.DeliveryPrice(ctx)
}

func (s *CatalogService) SetDeliveryPrice(ctx context.Context, price core.Money) error {
	if price.IsNegative() {
		return invalid(core.ErrInvalidAmount)
	}
	if err := s.repo.SetDeliveryPrice(ctx, price); err != nil {
		return fmt.Errorf("set delivery price: %w", err)
	}
	slog.InfoContext(ctx, "Delivery price updated", "price", price.String())
	s.changed()
	return nil
}

// Neighborhoods lists the delivery zones and their fees.
func (s *CatalogService) Neighborhoods() []delivery.Zone {
	return s.zones.Zones()
}
