package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"zeendr/internal/core"
)

const productColumns = `id, name, price, category, discount, image_url, hidden, stock, recipe, units_produced, cost`

func scanProduct(row scanner) (core.Product, error) {
	var (
		p      core.Product
		hidden int
		recipe string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Discount, &p.ImageURL,
		&hidden, &p.Stock, &recipe, &p.UnitsProduced, &p.Cost); err != nil {
		return core.Product{}, err
	}
	p.Hidden = hidden == 1
	if err := json.Unmarshal([]byte(recipe), &p.Recipe); err != nil {
		return core.Product{}, fmt.Errorf("product %d recipe: %w", p.ID, err)
	}
	return p, nil
}

func (q *Queries) ListProducts(ctx context.Context, search string) ([]core.Product, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products
		WHERE name LIKE ? ESCAPE '\' ORDER BY name, id`, likePattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	p, err := scanProduct(q.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		return core.Product{}, notFound(err, "product", id)
	}
	return p, nil
}

func productArgs(p core.Product) ([]any, error) {
	recipe := p.Recipe
	if recipe == nil {
		recipe = []core.RecipeLine{}
	}
	enc, err := encodeJSON(recipe)
	if err != nil {
		return nil, err
	}
	return []any{p.Name, p.Price, p.Category, p.Discount, p.ImageURL, boolInt(p.Hidden),
		p.Stock, enc, p.UnitsProduced, p.Cost}, nil
}

func (q *Queries) CreateProduct(ctx context.Context, p core.Product) (int64, error) {
	args, err := productArgs(p)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, `INSERT INTO products
		(name, price, category, discount, image_url, hidden, stock, recipe, units_produced, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateProduct(ctx context.Context, p core.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return err
	}
	res, err := q.db.ExecContext(ctx, `UPDATE products SET name = ?, price = ?, category = ?,
		discount = ?, image_url = ?, hidden = ?, stock = ?, recipe = ?, units_produced = ?, cost = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`, append(args, p.ID)...)
	if err != nil {
		return err
	}
	return requireAffected(res, "product", p.ID)
}

func (q *Queries) DeleteProduct(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "product", id)
}

func (q *Queries) SetProductStock(ctx context.Context, id, stock int64) error {
	res, err := q.db.ExecContext(ctx, `UPDATE products SET stock = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ?`, stock, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "product", id)
}

// AdjustProductStock adds delta to the stock and returns the new value.
func (q *Queries) AdjustProductStock(ctx context.Context, id, delta int64) (int64, error) {
	var stock int64
	err := q.db.QueryRowContext(ctx, `UPDATE products SET stock = stock + ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ? RETURNING stock`, delta, id).Scan(&stock)
	if err != nil {
		return 0, notFound(err, "product", id)
	}
	return stock, nil
}

func scanSupply(row scanner) (core.Supply, error) {
	var (
		s        core.Supply
		unit     string
		supplier *int64
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Price, &s.Quantity, &unit, &supplier, &s.Category); err != nil {
		return core.Supply{}, err
	}
	s.Unit = core.Unit(unit)
	if supplier != nil {
		s.SupplierID = *supplier
	}
	return s, nil
}

func (q *Queries) ListSupplies(ctx context.Context, search string) ([]core.Supply, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name, price, quantity, unit, supplier_id, category
		FROM supplies WHERE name LIKE ? ESCAPE '\' ORDER BY name, id`, likePattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Supply
	for rows.Next() {
		s, err := scanSupply(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) GetSupply(ctx context.Context, id int64) (core.Supply, error) {
	s, err := scanSupply(q.db.QueryRowContext(ctx, `SELECT id, name, price, quantity, unit, supplier_id, category
		FROM supplies WHERE id = ?`, id))
	if err != nil {
		return core.Supply{}, notFound(err, "supply", id)
	}
	return s, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func (q *Queries) CreateSupply(ctx context.Context, s core.Supply) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO supplies (name, price, quantity, unit, supplier_id, category)
		VALUES (?, ?, ?, ?, ?, ?)`, s.Name, s.Price, s.Quantity, string(s.Unit), nullableID(s.SupplierID), s.Category)
	if err != nil {
		return 0, constraint(err)
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateSupply(ctx context.Context, s core.Supply) error {
	res, err := q.db.ExecContext(ctx, `UPDATE supplies SET name = ?, price = ?, quantity = ?, unit = ?,
		supplier_id = ?, category = ? WHERE id = ?`,
		s.Name, s.Price, s.Quantity, string(s.Unit), nullableID(s.SupplierID), s.Category, s.ID)
	if err != nil {
		return constraint(err)
	}
	return requireAffected(res, "supply", s.ID)
}

func (q *Queries) DeleteSupply(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM supplies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "supply", id)
}

func (q *Queries) ListSuppliers(ctx context.Context, search string) ([]core.Supplier, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name, category, phone FROM suppliers
		WHERE name LIKE ? ESCAPE '\' ORDER BY name, id`, likePattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Supplier
	for rows.Next() {
		var s core.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Phone); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) CreateSupplier(ctx context.Context, s core.Supplier) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO suppliers (name, category, phone) VALUES (?, ?, ?)`,
		s.Name, s.Category, s.Phone)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateSupplier(ctx context.Context, s core.Supplier) error {
	res, err := q.db.ExecContext(ctx, `UPDATE suppliers SET name = ?, category = ?, phone = ? WHERE id = ?`,
		s.Name, s.Category, s.Phone, s.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, "supplier", s.ID)
}

func (q *Queries) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return constraint(err)
	}
	return requireAffected(res, "supplier", id)
}

func (q *Queries) ListCategories(ctx context.Context, kind core.CategoryKind, search string) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, kind, name, position FROM categories
		WHERE kind = ? AND name LIKE ? ESCAPE '\' ORDER BY position, name`, string(kind), likePattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		var (
			c core.Category
			k string
		)
		if err := rows.Scan(&c.ID, &k, &c.Name, &c.Order); err != nil {
			return nil, err
		}
		c.Kind = core.CategoryKind(k)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO categories (kind, name, position) VALUES (?, ?, ?)`,
		string(c.Kind), c.Name, c.Order)
	if err != nil {
		return 0, constraint(err)
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := q.db.ExecContext(ctx, `UPDATE categories SET name = ?, position = ? WHERE id = ? AND kind = ?`,
		c.Name, c.Order, c.ID, string(c.Kind))
	if err != nil {
		return constraint(err)
	}
	return requireAffected(res, "category", c.ID)
}

func (q *Queries) DeleteCategory(ctx context.Context, kind core.CategoryKind, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND kind = ?`, id, string(kind))
	if err != nil {
		return err
	}
	return requireAffected(res, "category", id)
}

func (q *Queries) ListCoupons(ctx context.Context, search string) ([]core.Coupon, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name, comment, discount, category, frozen
		FROM coupons WHERE name LIKE ? ESCAPE '\' ORDER BY name, id`, likePattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Coupon
	for rows.Next() {
		var (
			c      core.Coupon
			frozen int
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Comment, &c.Discount, &c.Category, &frozen); err != nil {
			return nil, err
		}
		c.Frozen = frozen == 1
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *Queries) CreateCoupon(ctx context.Context, c core.Coupon) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO coupons (name, comment, discount, category, frozen)
		VALUES (?, ?, ?, ?, ?)`, c.Name, c.Comment, c.Discount, c.Category, boolInt(c.Frozen))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateCoupon(ctx context.Context, c core.Coupon) error {
	res, err := q.db.ExecContext(ctx, `UPDATE coupons SET name = ?, comment = ?, discount = ?,
		category = ?, frozen = ? WHERE id = ?`,
		c.Name, c.Comment, c.Discount, c.Category, boolInt(c.Frozen), c.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, "coupon", c.ID)
}

func (q *Queries) DeleteCoupon(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "coupon", id)
}
