package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Message kinds carried on the zeendr queue.
const (
	KindOrderNotify = "order.notify"
	KindLedgerSync  = "ledger.sync"
)

// Ledger entities.
const (
	EntityOrder   = "order"
	EntityExpense = "expense"
)

var ErrInvalidMessage = errors.New("invalid message")

// Message only carries identifiers; the worker loads current data from the
// database before acting on it.
type Message struct {
	Kind      string    `json:"kind"`
	Entity    string    `json:"entity,omitempty"`
	ID        int64     `json:"id"`
	Status    string    `json:"estado,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOrderNotifyMessage(orderID int64, status string) *Message {
	return &Message{Kind: KindOrderNotify, Entity: EntityOrder, ID: orderID, Status: status, Timestamp: time.Now()}
}

func NewLedgerSyncMessage(entity string, id int64) *Message {
	return &Message{Kind: KindLedgerSync, Entity: entity, ID: id, Timestamp: time.Now()}
}

func (m *Message) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("%w: id %d", ErrInvalidMessage, m.ID)
	}
	switch m.Kind {
	case KindOrderNotify:
		if m.Status == "" {
			return fmt.Errorf("%w: notify message without status", ErrInvalidMessage)
		}
	case KindLedgerSync:
		if m.Entity != EntityOrder && m.Entity != EntityExpense {
			return fmt.Errorf("%w: entity %q", ErrInvalidMessage, m.Entity)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidMessage, m.Kind)
	}
	return nil
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes and validates a message body.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
