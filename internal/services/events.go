// Package services orchestrates the repository, the message bus and the
// report cache for the HTTP handlers and the worker.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zeendr/internal/amqp"
)

// ErrValidation marks input rejected before anything was stored.
var ErrValidation = errors.New("validation failed")

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Publisher sends side-effect messages to the worker. *amqp.Client
// implements it.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.Message) error
}

// Invalidator drops cached report results after a write.
type Invalidator interface {
	Invalidate()
}

const publishTimeout = 5 * time.Second

// events fans out the consequences of a committed write. Publishing
// failures are logged and never returned: the row is stored and the
// ledger poller will pick it up.
type events struct {
	pub Publisher
	inv Invalidator
}

func (e events) changed() {
	if e.inv != nil {
		e.inv.Invalidate()
	}
}

func (e events) publish(ctx context.Context, msg *amqp.Message) {
	if e.pub == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping message", "kind", msg.Kind, "id", msg.ID)
		return
	}
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := e.pub.Publish(pctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish message",
			"kind", msg.Kind, "entity", msg.Entity, "id", msg.ID, "error", err)
	}
}

func (e events) ledgerSync(ctx context.Context, entity string, id int64) {
	e.publish(ctx, amqp.NewLedgerSyncMessage(entity, id))
}
