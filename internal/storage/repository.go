package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"zeendr/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the database handle and runs the multi-statement
// operations inside transactions. Single statements go through Queries.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN returns the connection string for dbPath with foreign keys enforced.
// Transactions begin IMMEDIATE so a writer in another process waits on the
// busy timeout instead of failing when it upgrades a read lock.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection per process: writes inside this process queue on the
	// pool instead of racing for the database lock.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Queries exposes the single-statement API.
func (r *SQLiteRepository) Queries() *Queries { return r.queries }

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateOrder stores the order, upserts its customer by phone number and
// records the initial status in the history.
func (r *SQLiteRepository) CreateOrder(ctx context.Context, o core.Order, by string) (core.Order, error) {
	err := r.inTx(ctx, func(q *Queries) error {
		return createOrder(ctx, q, &o, by)
	})
	if err != nil {
		return core.Order{}, err
	}
	slog.InfoContext(ctx, "Order saved", "id", o.ID, "status", o.Status, "total", o.Total.String())
	return o, nil
}

func createOrder(ctx context.Context, q *Queries, o *core.Order, by string) error {
	if o.Phone != core.PointOfSalePhone {
		if _, err := q.UpsertClient(ctx, core.ClientFromOrder(*o)); err != nil {
			return fmt.Errorf("upsert client: %w", err)
		}
	}
	id, err := q.CreateOrder(ctx, *o)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	o.ID = id
	err = q.InsertStatusChange(ctx, core.StatusChange{
		OrderID:   id,
		To:        o.Status,
		ChangedAt: o.CreatedAt,
		ChangedBy: by,
	})
	if err != nil {
		return fmt.Errorf("record status: %w", err)
	}
	return nil
}

// ImportOrders stores every order or none of them.
func (r *SQLiteRepository) ImportOrders(ctx context.Context, orders []core.Order, by string) ([]int64, error) {
	ids := make([]int64, 0, len(orders))
	err := r.inTx(ctx, func(q *Queries) error {
		for i := range orders {
			if err := createOrder(ctx, q, &orders[i], by); err != nil {
				return fmt.Errorf("order %d: %w", i+1, err)
			}
			ids = append(ids, orders[i].ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Orders imported", "count", len(ids))
	return ids, nil
}

// ChangeOrderStatus moves an order to status `to` after check approves the
// transition from its current status. A change to the current status is
// a no-op and is not recorded.
func (r *SQLiteRepository) ChangeOrderStatus(ctx context.Context, change core.StatusChange,
	check func(from, to core.OrderStatus) error) (core.Order, core.StatusChange, error) {
	var order core.Order
	err := r.inTx(ctx, func(q *Queries) error {
		o, err := q.GetOrder(ctx, change.OrderID)
		if err != nil {
			return err
		}
		change.From = o.Status
		if err := check(o.Status, change.To); err != nil {
			return err
		}
		order = o
		if o.Status == change.To {
			return nil
		}
		if err := q.UpdateOrderStatus(ctx, o.ID, change.To); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if err := q.InsertStatusChange(ctx, change); err != nil {
			return fmt.Errorf("record status: %w", err)
		}
		order.Status = change.To
		return nil
	})
	if err != nil {
		return core.Order{}, core.StatusChange{}, err
	}
	return order, change, nil
}

// ImportExpenses stores every expense or none of them.
func (r *SQLiteRepository) ImportExpenses(ctx context.Context, expenses []core.Expense) ([]int64, error) {
	ids := make([]int64, 0, len(expenses))
	err := r.inTx(ctx, func(q *Queries) error {
		for i, e := range expenses {
			id, err := q.CreateExpense(ctx, e)
			if err != nil {
				return fmt.Errorf("expense %d: %w", i+1, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Expenses imported", "count", len(ids))
	return ids, nil
}

// ApplyMovement applies every stock change of m and records it. If any
// product would end with negative stock nothing is changed.
func (r *SQLiteRepository) ApplyMovement(ctx context.Context, m core.InventoryMovement) (core.InventoryMovement, error) {
	err := r.inTx(ctx, func(q *Queries) error {
		for _, c := range m.Changes {
			p, err := q.GetProduct(ctx, c.ProductID)
			if err != nil {
				return err
			}
			next := p.Stock + m.Delta(c)
			if next < 0 {
				return fmt.Errorf("%w: %s has %d, requested %d", ErrNoStock, p.Name, p.Stock, c.Quantity)
			}
			if err := q.SetProductStock(ctx, p.ID, next); err != nil {
				return err
			}
		}
		id, err := q.CreateMovement(ctx, m)
		if err != nil {
			return fmt.Errorf("record movement: %w", err)
		}
		m.ID = id
		return nil
	})
	if err != nil {
		return core.InventoryMovement{}, err
	}
	slog.InfoContext(ctx, "Inventory movement applied", "id", m.ID, "kind", m.Kind, "lines", len(m.Changes))
	return m, nil
}

// DeliveryPrice returns the configured default delivery fee.
func (r *SQLiteRepository) DeliveryPrice(ctx context.Context) (core.Money, error) {
	v, err := r.queries.GetSetting(ctx, settingDeliveryPrice)
	if err != nil {
		return core.Money{}, err
	}
	var m core.Money
	if err := m.Scan(v); err != nil {
		return core.Money{}, fmt.Errorf("parse delivery price %q: %w", v, err)
	}
	return m, nil
}

func (r *SQLiteRepository) SetDeliveryPrice(ctx context.Context, price core.Money) error {
	return r.queries.SetSetting(ctx, settingDeliveryPrice, price.String())
}

const settingDeliveryPrice = "delivery_price"
