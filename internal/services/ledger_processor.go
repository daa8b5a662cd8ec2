package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zeendr/internal/amqp"
	"zeendr/internal/ledger"
	"zeendr/internal/storage"
)

// LedgerProcessorConfig holds configuration for the ledger poller
type LedgerProcessorConfig struct {
	// PollInterval is how often to look for unsynced rows (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of orders and of expenses per poll (default: 10)
	BatchSize int
}

func DefaultLedgerProcessorConfig() LedgerProcessorConfig {
	return LedgerProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
	}
}

// LedgerProcessor mirrors orders and expenses to the ledger. The worker
// calls SyncOrder and SyncExpense for each AMQP message; the poll loop
// retries every row whose ledger_synced flag is still clear.
type LedgerProcessor struct {
	storage *storage.SQLiteRepository
	ledger  ledger.Writer
	config  LedgerProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLedgerProcessor(storage *storage.SQLiteRepository, w ledger.Writer, config LedgerProcessorConfig) *LedgerProcessor {
	return &LedgerProcessor{storage: storage, ledger: w, config: config}
}

// Start begins the poll loop. Returns an error if already running.
func (p *LedgerProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("ledger processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Ledger processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop stops the loop and waits for the current batch to finish.
func (p *LedgerProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Ledger processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Ledger processor stop timed out")
		return ctx.Err()
	}
}

func (p *LedgerProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *LedgerProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.ProcessPending(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessPending(ctx)
		}
	}
}

// ProcessPending syncs one batch of unsynced orders and one of expenses.
// It returns how many rows were written.
func (p *LedgerProcessor) ProcessPending(ctx context.Context) int {
	q := p.storage.Queries()
	synced := 0

	orders, err := q.PendingLedgerOrders(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list pending ledger orders", "error", err)
	}
	for _, id := range orders {
		if ctx.Err() != nil {
			return synced
		}
		if err := p.SyncOrder(ctx, id); err != nil {
			slog.WarnContext(ctx, "Ledger sync failed", "order_id", id, "error", err)
			if err := q.MarkOrderSyncFailed(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Failed to record sync attempt", "order_id", id, "error", err)
			}
			continue
		}
		synced++
	}

	expenses, err := q.PendingLedgerExpenses(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list pending ledger expenses", "error", err)
	}
	for _, id := range expenses {
		if ctx.Err() != nil {
			return synced
		}
		if err := p.SyncExpense(ctx, id); err != nil {
			slog.WarnContext(ctx, "Ledger sync failed", "expense_id", id, "error", err)
			if err := q.MarkExpenseSyncFailed(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Failed to record sync attempt", "expense_id", id, "error", err)
			}
			continue
		}
		synced++
	}

	if synced > 0 {
		slog.InfoContext(ctx, "Ledger batch synced", "count", synced)
	}
	return synced
}

// SyncOrder writes the current state of an order to its ledger row.
// Orders that never counted as revenue have no row and are skipped.
func (p *LedgerProcessor) SyncOrder(ctx context.Context, id int64) error {
	q := p.storage.Queries()
	o, err := q.GetOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("get order %d: %w", id, err)
	}
	ref, err := q.OrderLedgerRef(ctx, id)
	if err != nil {
		return err
	}
	if ref == "" && !o.Status.CountsAsRevenue() {
		return nil
	}
	ref, err = p.ledger.UpsertOrder(ctx, o, ref)
	if err != nil {
		return fmt.Errorf("upsert order row: %w", err)
	}
	if err := q.MarkOrderSynced(ctx, id, ref); err != nil {
		return fmt.Errorf("mark order synced: %w", err)
	}
	slog.InfoContext(ctx, "Synced order to ledger", "order_id", id, "ledger_ref", ref)
	return nil
}

func (p *LedgerProcessor) SyncExpense(ctx context.Context, id int64) error {
	q := p.storage.Queries()
	e, err := q.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense %d: %w", id, err)
	}
	ref, err := q.ExpenseLedgerRef(ctx, id)
	if err != nil {
		return err
	}
	ref, err = p.ledger.UpsertExpense(ctx, e, ref)
	if err != nil {
		return fmt.Errorf("upsert expense row: %w", err)
	}
	if err := q.MarkExpenseSynced(ctx, id, ref); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "Synced expense to ledger", "expense_id", id, "ledger_ref", ref)
	return nil
}

// Sync dispatches a ledger.sync message.
func (p *LedgerProcessor) Sync(ctx context.Context, msg *amqp.Message) error {
	switch msg.Entity {
	case amqp.EntityOrder:
		return p.SyncOrder(ctx, msg.ID)
	case amqp.EntityExpense:
		return p.SyncExpense(ctx, msg.ID)
	}
	return fmt.Errorf("%w: entity %q", amqp.ErrInvalidMessage, msg.Entity)
}
