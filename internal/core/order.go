package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Point-of-sale placeholders used when an order has no real customer.
const (
	PointOfSaleName  = "Punto de Venta"
	PointOfSalePhone = "0000000000"
	PointOfSaleEmail = "puntodeventa@zeendr.com"
)

var (
	ErrNoProducts     = errors.New("order has no products")
	ErrUnknownProduct = errors.New("unknown product")
)

// ProductRef is a product id as found in order lines. Clients send it
// either as a number or as a string.
type ProductRef string

func (r *ProductRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ProductRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*r = ProductRef(n.String())
	return nil
}

// Int64 returns the numeric id, or false for non numeric references.
func (r ProductRef) Int64() (int64, bool) {
	id, err := strconv.ParseInt(string(r), 10, 64)
	return id, err == nil
}

// Quantity tolerates numbers, numeric strings and null on the wire.
type Quantity int64

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*q = 0
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	*q = Quantity(d.IntPart())
	return nil
}

type OrderLine struct {
	ProductID   ProductRef `json:"id"`
	Quantity    Quantity   `json:"quantity"`
	CustomPrice *Money     `json:"precio_personalizado,omitempty"`
}

// Qty is the effective quantity: a missing or zero quantity counts as one.
func (l OrderLine) Qty() int64 {
	if l.Quantity <= 0 {
		return 1
	}
	return int64(l.Quantity)
}

// OrderLines is serialized as a JSON-encoded string, which is how the
// dashboard has always stored and exchanged the product list.
type OrderLines []OrderLine

func (ls OrderLines) MarshalJSON() ([]byte, error) {
	if ls == nil {
		ls = OrderLines{}
	}
	inner, err := json.Marshal([]OrderLine(ls))
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

// UnmarshalJSON accepts the encoded string form as well as a plain array.
func (ls *OrderLines) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		lines, err := ParseOrderLines(s)
		if err != nil {
			return err
		}
		*ls = lines
		return nil
	}
	var lines []OrderLine
	if err := json.Unmarshal(b, &lines); err != nil {
		return fmt.Errorf("parse order lines: %w", err)
	}
	*ls = lines
	return nil
}

// Encode returns the storage form of the lines.
func (ls OrderLines) Encode() string {
	if ls == nil {
		ls = OrderLines{}
	}
	b, _ := json.Marshal([]OrderLine(ls))
	return string(b)
}

// ParseOrderLines decodes the JSON list stored in an order's productos field.
func ParseOrderLines(raw string) (OrderLines, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return OrderLines{}, nil
	}
	var lines []OrderLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("parse order lines: %w", err)
	}
	return lines, nil
}

type Order struct {
	ID              int64       `json:"id"`
	CustomerName    string      `json:"nombre_completo"`
	Phone           string      `json:"numero_telefono"`
	Email           string      `json:"correo_electronico"`
	Address         string      `json:"direccion"`
	AddressDetails  string      `json:"detalles_direccion"`
	Neighborhood    string      `json:"barrio"`
	Lines           OrderLines  `json:"productos"`
	PaymentMethod   string      `json:"metodo_pago"`
	ReceiptURL      string      `json:"comprobante_pago"`
	CreatedAt       Timestamp   `json:"fecha_hora"`
	DeliveryDate    Date        `json:"fecha_entrega"`
	DeliveryWindow  string      `json:"rango_horas"`
	Status          OrderStatus `json:"estado"`
	ProductsTotal   Money       `json:"total_productos"`
	DeliveryFee     Money       `json:"costo_domicilio"`
	DiscountPercent float64     `json:"descuento_porcentual"`
	DiscountedTotal Money       `json:"total_con_descuento"`
	Total           Money       `json:"total_final"`
	Coupon          string      `json:"cupon"`
	Establishment   string      `json:"establecimiento"`
}

func (o Order) Validate() error {
	if blank(o.CustomerName) {
		return ErrEmptyName
	}
	if blank(o.Phone) {
		return ErrEmptyPhone
	}
	if len(o.Lines) == 0 {
		return ErrNoProducts
	}
	for _, l := range o.Lines {
		if l.ProductID == "" {
			return fmt.Errorf("%w: empty product id", ErrUnknownProduct)
		}
		if l.Quantity < 0 {
			return ErrInvalidQuantity
		}
		if l.CustomPrice != nil && l.CustomPrice.IsNegative() {
			return ErrInvalidAmount
		}
	}
	if !o.Status.Valid() {
		return ErrUnknownStatus
	}
	if !validPercent(o.DiscountPercent) {
		return ErrInvalidPercent
	}
	if o.DeliveryFee.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// MarkPointOfSale replaces the customer fields with the point-of-sale
// placeholders and drops the delivery fee.
func (o *Order) MarkPointOfSale() {
	o.CustomerName = PointOfSaleName
	o.Phone = PointOfSalePhone
	o.Email = PointOfSaleEmail
	o.Address = PointOfSaleName
	o.Neighborhood = ""
	o.DeliveryFee = Money{}
}

// SaleTotal is what the delivery screen reports per order: products plus
// the delivery fee charged on the order.
func (o Order) SaleTotal() Money {
	return o.ProductsTotal.Add(o.DeliveryFee)
}

// ClientFromOrder extracts the customer record carried by an order.
func ClientFromOrder(o Order) Client {
	return Client{
		Name:           o.CustomerName,
		Phone:          o.Phone,
		Email:          o.Email,
		Address:        o.Address,
		AddressDetails: o.AddressDetails,
		Neighborhood:   o.Neighborhood,
	}
}
