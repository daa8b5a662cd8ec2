package bulk

import (
	"fmt"
	"io"
	"strconv"

	"zeendr/internal/core"
)

// OrderRow is an order read from an upload with its worksheet row number.
type OrderRow struct {
	Row int
	core.Order
}

// ParseOrders reads an order upload. Every row is checked and all problems
// are returned together as Errors; no order is returned unless every row
// is valid. Prices in precio_productos become custom line prices and
// costo_domicilio the order's delivery fee.
func ParseOrders(r io.Reader) ([]OrderRow, error) {
	s, err := open(r, []string{"nombre_completo", "numero_telefono", "ids_productos"})
	if err != nil {
		return nil, err
	}

	var (
		orders []OrderRow
		errs   Errors
	)
	for i, row := range s.rows {
		if blankRow(row) {
			continue
		}
		o, err := s.order(row)
		if err != nil {
			errs = append(errs, RowError{Row: i + 2, Message: err.Error()})
			continue
		}
		orders = append(orders, OrderRow{Row: i + 2, Order: o})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if len(orders) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return orders, nil
}

func (s *sheet) order(row []string) (core.Order, error) {
	o := core.Order{
		CustomerName:  s.cell(row, "nombre_completo"),
		Phone:         s.cell(row, "numero_telefono"),
		Address:       s.cell(row, "direccion"),
		Neighborhood:  s.cell(row, "barrio"),
		PaymentMethod: s.cell(row, "metodo_pago"),
		Status:        core.StatusConfirmed,
	}

	if v := s.cell(row, "fecha_hora"); v != "" {
		ts, err := parseTime(v)
		if err != nil {
			return core.Order{}, fmt.Errorf("fecha_hora: %w", err)
		}
		o.CreatedAt = ts
	}

	lines, err := orderLines(s.cell(row, "ids_productos"), s.cell(row, "cantidad_productos"), s.cell(row, "precio_productos"))
	if err != nil {
		return core.Order{}, err
	}
	o.Lines = lines

	if v := s.cell(row, "costo_domicilio"); v != "" {
		fee, err := core.ParseAmount(v)
		if err != nil || fee.IsNegative() {
			return core.Order{}, fmt.Errorf("costo_domicilio: %w", core.ErrInvalidAmount)
		}
		o.DeliveryFee = fee
	}

	if err := o.Validate(); err != nil {
		return core.Order{}, err
	}
	return o, nil
}

// orderLines zips the comma separated id, quantity and price columns.
// Quantities and prices may be omitted entirely but not partially.
func orderLines(ids, quantities, prices string) (core.OrderLines, error) {
	idList := splitList(ids)
	qtyList := splitList(quantities)
	priceList := splitList(prices)
	if len(idList) == 0 {
		return nil, core.ErrNoProducts
	}
	if len(qtyList) > 0 && len(qtyList) != len(idList) {
		return nil, fmt.Errorf("cantidad_productos tiene %d valores para %d productos", len(qtyList), len(idList))
	}
	if len(priceList) > 0 && len(priceList) != len(idList) {
		return nil, fmt.Errorf("precio_productos tiene %d valores para %d productos", len(priceList), len(idList))
	}

	lines := make(core.OrderLines, len(idList))
	for i, id := range idList {
		if id == "" {
			return nil, fmt.Errorf("%w: id vacío", core.ErrUnknownProduct)
		}
		lines[i].ProductID = core.ProductRef(id)
		if len(qtyList) > 0 {
			n, err := strconv.ParseInt(qtyList[i], 10, 64)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("cantidad %q: %w", qtyList[i], core.ErrInvalidQuantity)
			}
			lines[i].Quantity = core.Quantity(n)
		}
		if len(priceList) > 0 {
			p, err := core.ParseAmount(priceList[i])
			if err != nil || p.IsNegative() {
				return nil, fmt.Errorf("precio %q: %w", priceList[i], core.ErrInvalidAmount)
			}
			lines[i].CustomPrice = &p
		}
	}
	return lines, nil
}
