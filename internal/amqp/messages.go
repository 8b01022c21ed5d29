package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a ledger mutation. It doubles as the routing key.
type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionDeleted EventType = "transaction.deleted"
	BudgetUpserted     EventType = "budget.upserted"
	BudgetDeleted      EventType = "budget.deleted"
)

func (t EventType) valid() bool {
	switch t {
	case TransactionCreated, TransactionDeleted, BudgetUpserted, BudgetDeleted:
		return true
	}
	return false
}

// LedgerEvent tells consumers that the ledger changed. It carries only
// identifiers; consumers re-read the store for current state.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(eventType EventType, id int64, category string) *LedgerEvent {
	return &LedgerEvent{
		Type:      eventType,
		ID:        id,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey returns the key the event is published under.
func (e *LedgerEvent) RoutingKey() string {
	return string(e.Type)
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Type.valid() {
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return &ev, nil
}
