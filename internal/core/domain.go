package core

import (
	"errors"
	"strings"
)

// Expense types with special meaning for margin calculations.
const (
	ExpenseTypeSuppliers = "Proveedores"
	ExpenseTypeSupplies  = "Insumos"
)

// Inventory movement kinds.
const (
	MovementIn  = "entrada"
	MovementOut = "salida"
)

type CategoryKind string

const (
	CategoryMenu     CategoryKind = "menu"
	CategorySupplier CategoryKind = "proveedor"
	CategoryCoupon   CategoryKind = "cupon"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type (
	Product struct {
		ID            int64        `json:"id"`
		Name          string       `json:"nombre"`
		Price         Money        `json:"precio"`
		Category      string       `json:"categoria"`
		Discount      float64      `json:"descuento"`
		ImageURL      string       `json:"imagen_url"`
		Hidden        bool         `json:"oculto"`
		Stock         int64        `json:"stock"`
		Recipe        []RecipeLine `json:"insumos"`
		UnitsProduced int64        `json:"unidades_producidas"`
		Cost          Money        `json:"costo"`
	}

	// RecipeLine is one ingredient of a product recipe.
	RecipeLine struct {
		SupplyID int64   `json:"insumo_id"`
		Quantity float64 `json:"cantidad"`
		Unit     Unit    `json:"unidad"`
	}

	// Supply is a raw ingredient bought from a supplier: Price buys
	// Quantity of Unit.
	Supply struct {
		ID         int64   `json:"id"`
		Name       string  `json:"nombre"`
		Price      Money   `json:"precio"`
		Quantity   float64 `json:"cantidad"`
		Unit       Unit    `json:"unidad"`
		SupplierID int64   `json:"proveedor_id"`
		Category   string  `json:"categoria"`
	}

	Supplier struct {
		ID       int64  `json:"id"`
		Name     string `json:"nombre"`
		Category string `json:"categoria"`
		Phone    string `json:"telefono"`
	}

	Expense struct {
		ID            int64  `json:"id"`
		Type          string `json:"tipo_gasto"`
		Description   string `json:"descripcion"`
		Amount        Money  `json:"monto"`
		Date          Date   `json:"fecha"`
		Establishment string `json:"establecimiento"`
	}

	Coupon struct {
		ID       int64   `json:"id"`
		Name     string  `json:"nombre"`
		Comment  string  `json:"comentario"`
		Discount float64 `json:"descuento"`
		Category string  `json:"categoria"`
		Frozen   bool    `json:"congelado"`
	}

	Category struct {
		ID    int64        `json:"id"`
		Kind  CategoryKind `json:"-"`
		Name  string       `json:"nombre"`
		Order int          `json:"orden"`
	}

	Client struct {
		ID             int64  `json:"id"`
		Name           string `json:"nombre_completo"`
		Phone          string `json:"numero_telefono"`
		Email          string `json:"correo_electronico"`
		Address        string `json:"direccion"`
		AddressDetails string `json:"detalles_direccion"`
		Neighborhood   string `json:"barrio"`
	}

	StockChange struct {
		ProductID int64 `json:"producto_id"`
		Quantity  int64 `json:"cantidad"`
	}

	InventoryMovement struct {
		ID        int64         `json:"id"`
		Kind      string        `json:"tipo"`
		Comment   string        `json:"comentario"`
		Changes   []StockChange `json:"cambiosStock"`
		CreatedAt Timestamp     `json:"fecha"`
	}

	PaymentMethod struct {
		ID     int64  `json:"id"`
		Name   string `json:"nombre"`
		Active bool   `json:"activo"`
	}

	// BusinessHours holds opening hours for one weekday (0 = Sunday).
	BusinessHours struct {
		Day    int    `json:"dia"`
		Opens  string `json:"apertura"`
		Closes string `json:"cierre"`
		Closed bool   `json:"cerrado"`
	}

	// MessageTemplate is the customer message sent when an order enters Status.
	MessageTemplate struct {
		Status OrderStatus `json:"estado"`
		Text   string      `json:"texto"`
	}

	StatusChange struct {
		OrderID   int64       `json:"pedido_id"`
		From      OrderStatus `json:"estado_anterior"`
		To        OrderStatus `json:"estado"`
		Notify    bool        `json:"notificar_cliente"`
		ChangedAt Timestamp   `json:"fecha"`
		ChangedBy string      `json:"usuario"`
	}

	User struct {
		ID            int64  `json:"id"`
		Username      string `json:"usuario"`
		PasswordHash  string `json:"-"`
		Establishment string `json:"establecimiento"`
		LogoURL       string `json:"logo_url"`
		Role          Role   `json:"rol"`
	}

	Session struct {
		Token     string    `json:"token"`
		User      User      `json:"usuario"`
		ExpiresAt Timestamp `json:"expira"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyExpenseType   = errors.New("empty expense type")
	ErrEmptyPhone         = errors.New("empty phone number")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidPercent     = errors.New("percentage must be between 0 and 100")
	ErrInvalidMovement    = errors.New("invalid inventory movement")
	ErrInvalidCategory    = errors.New("invalid category kind")
	ErrInvalidWeekday     = errors.New("weekday must be between 0 and 6")
	ErrInvalidRole        = errors.New("invalid role")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

func validPercent(p float64) bool { return p >= 0 && p <= 100 }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func (p Product) Validate() error {
	if blank(p.Name) {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrInvalidAmount
	}
	if !validPercent(p.Discount) {
		return ErrInvalidPercent
	}
	if p.Stock < 0 || p.UnitsProduced < 0 {
		return ErrInvalidQuantity
	}
	for _, l := range p.Recipe {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// SalePrice is the list price less the product discount.
func (p Product) SalePrice() Money {
	return p.Price.LessPercent(decimalFromFloat(p.Discount))
}

func (s Supply) Validate() error {
	if blank(s.Name) {
		return ErrEmptyName
	}
	if s.Price.IsNegative() {
		return ErrInvalidAmount
	}
	if s.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := ParseUnit(string(s.Unit)); err != nil {
		return err
	}
	return nil
}

func (s Supplier) Validate() error {
	if blank(s.Name) {
		return ErrEmptyName
	}
	return nil
}

func (e Expense) Validate() error {
	if blank(e.Type) {
		return ErrEmptyExpenseType
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// IsCostOfGoods reports whether the expense counts toward gross margin.
func (e Expense) IsCostOfGoods() bool {
	return e.Type == ExpenseTypeSuppliers || e.Type == ExpenseTypeSupplies
}

func (c Coupon) Validate() error {
	if blank(c.Name) {
		return ErrEmptyName
	}
	if !validPercent(c.Discount) {
		return ErrInvalidPercent
	}
	return nil
}

func ParseCategoryKind(s string) (CategoryKind, error) {
	switch k := CategoryKind(s); k {
	case CategoryMenu, CategorySupplier, CategoryCoupon:
		return k, nil
	}
	return "", ErrInvalidCategory
}

func (c Category) Validate() error {
	if blank(c.Name) {
		return ErrEmptyName
	}
	if _, err := ParseCategoryKind(string(c.Kind)); err != nil {
		return err
	}
	return nil
}

func (c Client) Validate() error {
	if blank(c.Name) {
		return ErrEmptyName
	}
	if blank(c.Phone) {
		return ErrEmptyPhone
	}
	return nil
}

func (m InventoryMovement) Validate() error {
	if m.Kind != MovementIn && m.Kind != MovementOut {
		return ErrInvalidMovement
	}
	if len(m.Changes) == 0 {
		return ErrInvalidMovement
	}
	for _, c := range m.Changes {
		if c.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// Delta returns the signed stock change for one line of the movement.
func (m InventoryMovement) Delta(c StockChange) int64 {
	if m.Kind == MovementOut {
		return -c.Quantity
	}
	return c.Quantity
}

func (p PaymentMethod) Validate() error {
	if blank(p.Name) {
		return ErrEmptyName
	}
	return nil
}

func (h BusinessHours) Validate() error {
	if h.Day < 0 || h.Day > 6 {
		return ErrInvalidWeekday
	}
	return nil
}

func (m MessageTemplate) Validate() error {
	if !m.Status.Valid() {
		return ErrUnknownStatus
	}
	if blank(m.Text) {
		return ErrEmptyDescription
	}
	return nil
}

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleStaff:
		return r, nil
	}
	return "", ErrInvalidRole
}
