package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a ledger change.
type EventType string

const (
	TransactionUpserted EventType = "transaction.upserted"
	TransactionDeleted  EventType = "transaction.deleted"
	CategoryCreated     EventType = "category.created"
	CategoriesSeeded    EventType = "categories.seeded"

	// TransactionsSaved covers a batch save; Count holds the rows saved and
	// Month is set when they all fall in one month.
	TransactionsSaved EventType = "transactions.saved"
)

func (t EventType) valid() bool {
	switch t {
	case TransactionUpserted, TransactionDeleted, TransactionsSaved, CategoryCreated, CategoriesSeeded:
		return true
	}
	return false
}

// LedgerEvent is published after a successful ledger write. Consumers fetch
// current state from the ledger; the event only says what changed.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id,omitempty"`
	Month     string    `json:"month,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(typ EventType, id string) *LedgerEvent {
	return &LedgerEvent{Type: typ, ID: id, Timestamp: time.Now().UTC()}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.valid() {
		return nil, fmt.Errorf("unknown ledger event type %q", e.Type)
	}
	return &e, nil
}
