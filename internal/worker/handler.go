// Package worker performs the side effects queued by the API server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zeendr/internal/amqp"
	"zeendr/internal/core"
	"zeendr/internal/notify"
	"zeendr/internal/storage"
)

// LedgerSyncer mirrors one order or expense to the ledger.
type LedgerSyncer interface {
	Sync(ctx context.Context, msg *amqp.Message) error
}

const sendTimeout = 15 * time.Second

// Handler dispatches AMQP messages. Returning an error makes the consumer
// requeue the message; messages about rows that no longer exist are
// dropped.
type Handler struct {
	storage  *storage.SQLiteRepository
	notifier notify.Notifier
	ledger   LedgerSyncer
}

func NewHandler(storage *storage.SQLiteRepository, notifier notify.Notifier, ledger LedgerSyncer) *Handler {
	return &Handler{storage: storage, notifier: notifier, ledger: ledger}
}

// Handle implements the amqp consumer callback.
func (h *Handler) Handle(ctx context.Context, msg *amqp.Message) error {
	var err error
	switch msg.Kind {
	case amqp.KindOrderNotify:
		err = h.HandleNotify(ctx, msg)
	case amqp.KindLedgerSync:
		err = h.ledger.Sync(ctx, msg)
	default:
		slog.WarnContext(ctx, "Dropping message of unknown kind", "kind", msg.Kind, "id", msg.ID)
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Dropping message for missing row",
			"kind", msg.Kind, "entity", msg.Entity, "id", msg.ID)
		return nil
	}
	return err
}

// HandleNotify sends the customer message for an order status. The message
// is skipped when the order moved to another status in the meantime.
func (h *Handler) HandleNotify(ctx context.Context, msg *amqp.Message) error {
	slog.InfoContext(ctx, "Processing notify message", "order_id", msg.ID, "status", msg.Status)

	q := h.storage.Queries()
	o, err := q.GetOrder(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if string(o.Status) != msg.Status {
		slog.InfoContext(ctx, "Order status changed since notification was queued, skipping",
			"order_id", o.ID, "queued", msg.Status, "current", o.Status)
		return nil
	}
	if o.Phone == "" || o.Phone == core.PointOfSalePhone {
		slog.InfoContext(ctx, "Order has no customer phone, skipping notification", "order_id", o.ID)
		return nil
	}

	text := ""
	tmpl, err := q.GetMessageTemplate(ctx, o.Status)
	switch {
	case err == nil:
		text = tmpl.Text
	case errors.Is(err, storage.ErrNotFound):
	default:
		return fmt.Errorf("get message template: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := h.notifier.Send(sctx, o.Phone, notify.Render(text, o)); err != nil {
		if errors.Is(err, notify.ErrInvalidPhone) {
			slog.WarnContext(ctx, "Cannot notify customer", "order_id", o.ID, "error", err)
			return nil
		}
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}
