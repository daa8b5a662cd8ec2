package storage

import (
	"context"
	"fmt"

	"zeendr/internal/core"
)

const orderColumns = `id, customer_name, phone, email, address, address_details, neighborhood,
	lines, payment_method, receipt_url, created_at, delivery_date, delivery_window, status,
	products_total, delivery_fee, discount_percent, discounted_total, total, coupon, establishment`

func scanOrder(row scanner) (core.Order, error) {
	var (
		o                      core.Order
		lines, created, status string
		delivery               string
	)
	err := row.Scan(&o.ID, &o.CustomerName, &o.Phone, &o.Email, &o.Address, &o.AddressDetails,
		&o.Neighborhood, &lines, &o.PaymentMethod, &o.ReceiptURL, &created, &delivery,
		&o.DeliveryWindow, &status, &o.ProductsTotal, &o.DeliveryFee, &o.DiscountPercent,
		&o.DiscountedTotal, &o.Total, &o.Coupon, &o.Establishment)
	if err != nil {
		return core.Order{}, err
	}
	parsed, err := core.ParseOrderLines(lines)
	if err != nil {
		return core.Order{}, fmt.Errorf("order %d: %w", o.ID, err)
	}
	o.Lines = parsed
	o.CreatedAt = parseTimestampText(created)
	o.DeliveryDate = parseDateText(delivery)
	o.Status = core.OrderStatus(status)
	return o, nil
}

func (q *Queries) collectOrders(ctx context.Context, query string, args ...any) ([]core.Order, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q *Queries) ListOrders(ctx context.Context) ([]core.Order, error) {
	return q.collectOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

// ListOrdersBetween returns orders created in [from, to).
func (q *Queries) ListOrdersBetween(ctx context.Context, from, to core.Timestamp) ([]core.Order, error) {
	return q.collectOrders(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE created_at >= ? AND created_at < ? ORDER BY created_at DESC, id DESC`,
		timestampText(from), timestampText(to))
}

// ListOrdersForDay returns orders created or delivered on day (YYYY-MM-DD)
// with one of the given statuses.
func (q *Queries) ListOrdersForDay(ctx context.Context, day string, statuses ...core.OrderStatus) ([]core.Order, error) {
	args := []any{day + "%", day}
	in := ""
	for i, s := range statuses {
		if i > 0 {
			in += ", "
		}
		in += "?"
		args = append(args, string(s))
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE (created_at LIKE ? OR delivery_date = ?)`
	if in != "" {
		query += ` AND status IN (` + in + `)`
	}
	return q.collectOrders(ctx, query+` ORDER BY created_at`, args...)
}

func (q *Queries) GetOrder(ctx context.Context, id int64) (core.Order, error) {
	o, err := scanOrder(q.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		return core.Order{}, notFound(err, "order", id)
	}
	return o, nil
}

func (q *Queries) CreateOrder(ctx context.Context, o core.Order) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO orders (customer_name, phone, email, address,
		address_details, neighborhood, lines, payment_method, receipt_url, created_at, delivery_date,
		delivery_window, status, products_total, delivery_fee, discount_percent, discounted_total,
		total, coupon, establishment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.CustomerName, o.Phone, o.Email, o.Address, o.AddressDetails, o.Neighborhood,
		o.Lines.Encode(), o.PaymentMethod, o.ReceiptURL, timestampText(o.CreatedAt),
		o.DeliveryDate.String(), o.DeliveryWindow, string(o.Status), o.ProductsTotal,
		o.DeliveryFee, o.DiscountPercent, o.DiscountedTotal, o.Total, o.Coupon, o.Establishment)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateOrder overwrites every editable field. Status is changed only via
// UpdateOrderStatus.
func (q *Queries) UpdateOrder(ctx context.Context, o core.Order) error {
	res, err := q.db.ExecContext(ctx, `UPDATE orders SET customer_name = ?, phone = ?, email = ?,
		address = ?, address_details = ?, neighborhood = ?, lines = ?, payment_method = ?,
		receipt_url = ?, created_at = ?, delivery_date = ?, delivery_window = ?, products_total = ?,
		delivery_fee = ?, discount_percent = ?, discounted_total = ?, total = ?, coupon = ?,
		establishment = ?, ledger_synced = 0
		WHERE id = ?`,
		o.CustomerName, o.Phone, o.Email, o.Address, o.AddressDetails, o.Neighborhood,
		o.Lines.Encode(), o.PaymentMethod, o.ReceiptURL, timestampText(o.CreatedAt),
		o.DeliveryDate.String(), o.DeliveryWindow, o.ProductsTotal, o.DeliveryFee,
		o.DiscountPercent, o.DiscountedTotal, o.Total, o.Coupon, o.Establishment, o.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, "order", o.ID)
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, id int64, status core.OrderStatus) error {
	res, err := q.db.ExecContext(ctx, `UPDATE orders SET status = ?, ledger_synced = 0 WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "order", id)
}

func (q *Queries) DeleteOrder(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "order", id)
}

func (q *Queries) InsertStatusChange(ctx context.Context, c core.StatusChange) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO order_status_history
		(order_id, from_status, to_status, notify, changed_at, changed_by) VALUES (?, ?, ?, ?, ?, ?)`,
		c.OrderID, string(c.From), string(c.To), boolInt(c.Notify), timestampText(c.ChangedAt), c.ChangedBy)
	return err
}

func (q *Queries) ListStatusChanges(ctx context.Context, orderID int64) ([]core.StatusChange, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT order_id, from_status, to_status, notify, changed_at, changed_by
		FROM order_status_history WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.StatusChange
	for rows.Next() {
		var (
			c            core.StatusChange
			from, to, at string
			notify       int
		)
		if err := rows.Scan(&c.OrderID, &from, &to, &notify, &at, &c.ChangedBy); err != nil {
			return nil, err
		}
		c.From, c.To = core.OrderStatus(from), core.OrderStatus(to)
		c.Notify = notify == 1
		c.ChangedAt = parseTimestampText(at)
		out = append(out, c)
	}
	return out, rows.Err()
}

// PendingLedgerOrders lists orders whose ledger row is missing or stale:
// revenue orders never mirrored and mirrored orders changed since. Rows
// that failed fewer times come first so repeated failures cannot starve
// the rest of the queue.
func (q *Queries) PendingLedgerOrders(ctx context.Context, limit int) ([]int64, error) {
	return q.collectIDs(ctx, `SELECT id FROM orders
		WHERE ledger_synced = 0 AND (status IN (?, ?) OR ledger_ref != '') ORDER BY sync_attempts, id LIMIT ?`,
		string(core.StatusConfirmed), string(core.StatusSent), limit)
}

func (q *Queries) MarkOrderSynced(ctx context.Context, id int64, ref string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE orders SET ledger_synced = 1, ledger_ref = ? WHERE id = ?`, ref, id)
	return err
}

func (q *Queries) MarkOrderSyncFailed(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE orders SET sync_attempts = sync_attempts + 1 WHERE id = ?`, id)
	return err
}

func (q *Queries) collectIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
