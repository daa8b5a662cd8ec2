package core

import (
	"errors"
	"fmt"
)

// OrderStatus values are the exact strings exchanged with clients.
type OrderStatus string

const (
	StatusReceived  OrderStatus = "Pedido Recibido"
	StatusConfirmed OrderStatus = "Pedido Confirmado"
	StatusSent      OrderStatus = "Pedido Enviado"
	StatusRejected  OrderStatus = "Pedido Rechazado"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// AllStatuses lists statuses in workflow order.
var AllStatuses = []OrderStatus{StatusReceived, StatusConfirmed, StatusSent, StatusRejected}

var forwardTransitions = map[OrderStatus][]OrderStatus{
	StatusReceived:  {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusSent, StatusRejected},
}

func ParseStatus(s string) (OrderStatus, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s OrderStatus) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// CountsAsRevenue reports whether orders in this status contribute to
// sales, margins and KPIs.
func (s OrderStatus) CountsAsRevenue() bool {
	return s == StatusConfirmed || s == StatusSent
}

// NotifiesCustomer reports whether moving into this status may send a
// message to the customer.
func (s OrderStatus) NotifiesCustomer() bool {
	return s == StatusSent
}

// Terminal statuses have no forward transitions.
func (s OrderStatus) Terminal() bool {
	return len(forwardTransitions[s]) == 0
}

// TransitionPolicy decides which status changes are accepted.
type TransitionPolicy struct {
	// AllowRollback accepts any move between known statuses.
	AllowRollback bool
}

// Check validates moving an order from one status to another. Moving to
// the current status is allowed and is a no-op for callers.
func (p TransitionPolicy) Check(from, to OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if from == to {
		return nil
	}
	if p.AllowRollback && from.Valid() {
		return nil
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
