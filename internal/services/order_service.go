package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zeendr/internal/amqp"
	"zeendr/internal/bulk"
	"zeendr/internal/core"
	"zeendr/internal/delivery"
	"zeendr/internal/storage"
)

// OrderInput is an order as submitted by the dashboard. A nil DeliveryFee
// means the fee is resolved server side.
type OrderInput struct {
	core.Order
	DeliveryFee *core.Money `json:"costo_domicilio"`
	PointOfSale bool        `json:"punto_venta"`
	// Row is the upload row the order came from, 0 for dashboard input.
	Row int `json:"-"`
}

// OrderService prices, stores and moves orders through their statuses.
type OrderService struct {
	repo   *storage.SQLiteRepository
	zones  *delivery.Table
	policy core.TransitionPolicy
	events
	now func() time.Time
}

func NewOrderService(repo *storage.SQLiteRepository, zones *delivery.Table, policy core.TransitionPolicy,
	pub Publisher, inv Invalidator) *OrderService {
	return &OrderService{
		repo:   repo,
		zones:  zones,
		policy: policy,
		events: events{pub: pub, inv: inv},
		now:    time.Now,
	}
}

func (s *OrderService) List(ctx context.Context) ([]core.Order, error) {
	return s.repo.Queries().ListOrders(ctx)
}

func (s *OrderService) Get(ctx context.Context, id int64) (core.Order, error) {
	return s.repo.Queries().GetOrder(ctx, id)
}

func (s *OrderService) History(ctx context.Context, id int64) ([]core.StatusChange, error) {
	if _, err := s.repo.Queries().GetOrder(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Queries().ListStatusChanges(ctx, id)
}

// Create stores a manual order. The status defaults to Confirmed and the
// totals are always computed here.
func (s *OrderService) Create(ctx context.Context, in OrderInput, by string) (core.Order, error) {
	o, err := s.prepare(ctx, in, nil)
	if err != nil {
		return core.Order{}, err
	}
	saved, err := s.repo.CreateOrder(ctx, o, by)
	if err != nil {
		return core.Order{}, fmt.Errorf("save order: %w", err)
	}
	s.changed()
	if saved.Status.CountsAsRevenue() {
		s.ledgerSync(ctx, amqp.EntityOrder, saved.ID)
	}
	return saved, nil
}

// Update replaces the editable fields of an order and reprices it. The
// status is kept; it only moves through ChangeStatus.
func (s *OrderService) Update(ctx context.Context, id int64, in OrderInput) (core.Order, error) {
	current, err := s.repo.Queries().GetOrder(ctx, id)
	if err != nil {
		return core.Order{}, err
	}
	in.Status = current.Status
	if in.CreatedAt.IsZero() {
		in.CreatedAt = current.CreatedAt
	}
	o, err := s.prepare(ctx, in, &current)
	if err != nil {
		return core.Order{}, err
	}
	o.ID = id
	if err := s.repo.Queries().UpdateOrder(ctx, o); err != nil {
		return core.Order{}, fmt.Errorf("update order: %w", err)
	}
	slog.InfoContext(ctx, "Order updated", "id", id, "total", o.Total.String())
	s.changed()
	if o.Status.CountsAsRevenue() {
		s.ledgerSync(ctx, amqp.EntityOrder, id)
	}
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Queries().DeleteOrder(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Order deleted", "id", id)
	s.changed()
	return nil
}

// ChangeStatus applies a status transition. When the order enters a
// status that notifies and notify is set, the customer message is queued
// after the change is stored. Without a publisher the change is recorded
// with notify off.
func (s *OrderService) ChangeStatus(ctx context.Context, id int64, to core.OrderStatus, notify bool, by string) (core.Order, core.StatusChange, error) {
	if notify && s.pub == nil {
		slog.WarnContext(ctx, "Customer notification requested but AMQP is not configured, not notifying",
			"id", id, "to", to)
		notify = false
	}
	change := core.StatusChange{
		OrderID:   id,
		To:        to,
		Notify:    notify && to.NotifiesCustomer(),
		ChangedAt: core.NewTimestamp(s.now()),
		ChangedBy: by,
	}
	order, change, err := s.repo.ChangeOrderStatus(ctx, change, s.policy.Check)
	if err != nil {
		if errors.Is(err, core.ErrUnknownStatus) {
			return core.Order{}, core.StatusChange{}, invalid(err)
		}
		return core.Order{}, core.StatusChange{}, err
	}
	if change.From == change.To {
		return order, change, nil
	}

	slog.InfoContext(ctx, "Order status changed",
		"id", id, "from", change.From, "to", change.To, "notify", change.Notify, "user", by)
	s.changed()
	if change.Notify {
		s.publish(ctx, amqp.NewOrderNotifyMessage(id, string(change.To)))
	}
	if change.From.CountsAsRevenue() || change.To.CountsAsRevenue() {
		s.ledgerSync(ctx, amqp.EntityOrder, id)
	}
	return order, change, nil
}

// Import stores a batch of orders parsed from an upload, all or nothing.
// Rejected orders are reported together as bulk.Errors keyed by their
// upload row.
func (s *OrderService) Import(ctx context.Context, inputs []OrderInput, by string) ([]int64, error) {
	products, err := s.repo.Queries().ListProducts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	catalog := core.CatalogIndex(products)

	var rowErrs bulk.Errors
	orders := make([]core.Order, len(inputs))
	for i, in := range inputs {
		o, err := s.build(ctx, in, nil, catalog)
		if errors.Is(err, ErrValidation) {
			row := in.Row
			if row == 0 {
				row = i + 2
			}
			msg := strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
			rowErrs = append(rowErrs, bulk.RowError{Row: row, Message: msg})
			continue
		}
		if err != nil {
			return nil, err
		}
		orders[i] = o
	}
	if len(rowErrs) > 0 {
		return nil, rowErrs
	}

	ids, err := s.repo.ImportOrders(ctx, orders, by)
	if err != nil {
		return nil, fmt.Errorf("import orders: %w", err)
	}
	s.changed()
	for i, id := range ids {
		if orders[i].Status.CountsAsRevenue() {
			s.ledgerSync(ctx, amqp.EntityOrder, id)
		}
	}
	return ids, nil
}

func (s *OrderService) prepare(ctx context.Context, in OrderInput, current *core.Order) (core.Order, error) {
	products, err := s.repo.Queries().ListProducts(ctx, "")
	if err != nil {
		return core.Order{}, fmt.Errorf("load products: %w", err)
	}
	return s.build(ctx, in, current, core.CatalogIndex(products))
}

func (s *OrderService) build(ctx context.Context, in OrderInput, current *core.Order, catalog map[core.ProductRef]core.Product) (core.Order, error) {
	o := in.Order
	if in.PointOfSale {
		o.MarkPointOfSale()
	}
	if o.Status == "" {
		o.Status = core.StatusConfirmed
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = core.NewTimestamp(s.now())
	}

	fee, err := s.deliveryFee(ctx, in, current)
	if err != nil {
		return core.Order{}, err
	}
	o.DeliveryFee = fee

	if err := o.Validate(); err != nil {
		return core.Order{}, invalid(err)
	}
	if err := core.PriceOrder(&o, catalog); err != nil {
		return core.Order{}, invalid(err)
	}
	return o, nil
}

// deliveryFee resolves the fee: point of sale is free, then the request
// value, then the fee already on the order if the neighborhood did not
// change, then the zone table, then the configured delivery price.
func (s *OrderService) deliveryFee(ctx context.Context, in OrderInput, current *core.Order) (core.Money, error) {
	switch {
	case in.PointOfSale:
		return core.Money{}, nil
	case in.DeliveryFee != nil:
		return *in.DeliveryFee, nil
	case current != nil && current.Neighborhood == in.Neighborhood:
		return current.DeliveryFee, nil
	}
	if fee, ok := s.zones.Lookup(in.Neighborhood); ok {
		return fee, nil
	}
	price, err := s.repo.DeliveryPrice(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("load delivery price: %w", err)
	}
	return price, nil
}
