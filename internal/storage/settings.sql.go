package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"zeendr/internal/core"
)

// UpsertClient inserts a client or refreshes the contact data stored for
// its phone number.
func (q *Queries) UpsertClient(ctx context.Context, c core.Client) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `INSERT INTO clients
		(name, phone, email, address, address_details, neighborhood) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (phone) DO UPDATE SET name = excluded.name, email = excluded.email,
			address = excluded.address, address_details = excluded.address_details,
			neighborhood = excluded.neighborhood
		RETURNING id`,
		c.Name, c.Phone, c.Email, c.Address, c.AddressDetails, c.Neighborhood).Scan(&id)
	return id, err
}

func (q *Queries) ListClients(ctx context.Context, search string) ([]core.Client, error) {
	pattern := likePattern(search)
	rows, err := q.db.QueryContext(ctx, `SELECT id, name, phone, email, address, address_details, neighborhood
		FROM clients WHERE name LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' ORDER BY name, id`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Client
	for rows.Next() {
		var c core.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.AddressDetails, &c.Neighborhood); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateClient(ctx context.Context, c core.Client) error {
	res, err := q.db.ExecContext(ctx, `UPDATE clients SET name = ?, phone = ?, email = ?, address = ?,
		address_details = ?, neighborhood = ? WHERE id = ?`,
		c.Name, c.Phone, c.Email, c.Address, c.AddressDetails, c.Neighborhood, c.ID)
	if err != nil {
		return constraint(err)
	}
	return requireAffected(res, "client", c.ID)
}

func (q *Queries) DeleteClient(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "client", id)
}

func (q *Queries) ListPaymentMethods(ctx context.Context, search string) ([]core.PaymentMethod, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name, active FROM payment_methods
		WHERE name LIKE ? ESCAPE '\' ORDER BY id`, likePattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.PaymentMethod
	for rows.Next() {
		var (
			p      core.PaymentMethod
			active int
		)
		if err := rows.Scan(&p.ID, &p.Name, &active); err != nil {
			return nil, err
		}
		p.Active = active == 1
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO payment_methods (name, active) VALUES (?, ?)`,
		p.Name, boolInt(p.Active))
	if err != nil {
		return 0, constraint(err)
	}
	return res.LastInsertId()
}

func (q *Queries) UpdatePaymentMethod(ctx context.Context, p core.PaymentMethod) error {
	res, err := q.db.ExecContext(ctx, `UPDATE payment_methods SET name = ?, active = ? WHERE id = ?`,
		p.Name, boolInt(p.Active), p.ID)
	if err != nil {
		return constraint(err)
	}
	return requireAffected(res, "payment method", p.ID)
}

func (q *Queries) DeletePaymentMethod(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM payment_methods WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "payment method", id)
}

func (q *Queries) ListBusinessHours(ctx context.Context) ([]core.BusinessHours, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT day, opens, closes, closed FROM business_hours ORDER BY day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.BusinessHours
	for rows.Next() {
		var (
			h      core.BusinessHours
			closed int
		)
		if err := rows.Scan(&h.Day, &h.Opens, &h.Closes, &closed); err != nil {
			return nil, err
		}
		h.Closed = closed == 1
		out = append(out, h)
	}
	return out, rows.Err()
}

func (q *Queries) SetBusinessHours(ctx context.Context, h core.BusinessHours) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO business_hours (day, opens, closes, closed) VALUES (?, ?, ?, ?)
		ON CONFLICT (day) DO UPDATE SET opens = excluded.opens, closes = excluded.closes, closed = excluded.closed`,
		h.Day, h.Opens, h.Closes, boolInt(h.Closed))
	return err
}

func (q *Queries) ListMessageTemplates(ctx context.Context) ([]core.MessageTemplate, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT status, text FROM message_templates ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.MessageTemplate
	for rows.Next() {
		var (
			m      core.MessageTemplate
			status string
		)
		if err := rows.Scan(&status, &m.Text); err != nil {
			return nil, err
		}
		m.Status = core.OrderStatus(status)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (q *Queries) GetMessageTemplate(ctx context.Context, status core.OrderStatus) (core.MessageTemplate, error) {
	m := core.MessageTemplate{Status: status}
	err := q.db.QueryRowContext(ctx, `SELECT text FROM message_templates WHERE status = ?`, string(status)).Scan(&m.Text)
	if err != nil {
		return core.MessageTemplate{}, notFound(err, "message template", status)
	}
	return m, nil
}

func (q *Queries) SetMessageTemplate(ctx context.Context, m core.MessageTemplate) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO message_templates (status, text) VALUES (?, ?)
		ON CONFLICT (status) DO UPDATE SET text = excluded.text`, string(m.Status), m.Text)
	return err
}

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", notFound(err, "setting", key)
	}
	return v, nil
}

func (q *Queries) SetSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (q *Queries) CreateMovement(ctx context.Context, m core.InventoryMovement) (int64, error) {
	changes, err := encodeJSON(m.Changes)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, `INSERT INTO inventory_movements (kind, comment, changes, created_at)
		VALUES (?, ?, ?, ?)`, m.Kind, m.Comment, changes, timestampText(m.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) ListMovements(ctx context.Context, limit int) ([]core.InventoryMovement, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, kind, comment, changes, created_at
		FROM inventory_movements ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.InventoryMovement
	for rows.Next() {
		var (
			m           core.InventoryMovement
			changes, at string
		)
		if err := rows.Scan(&m.ID, &m.Kind, &m.Comment, &changes, &at); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(changes), &m.Changes); err != nil {
			return nil, fmt.Errorf("movement %d changes: %w", m.ID, err)
		}
		m.CreatedAt = parseTimestampText(at)
		out = append(out, m)
	}
	return out, rows.Err()
}
