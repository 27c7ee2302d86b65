package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind says what happened to the ledger.
type EventKind string

const (
	EventAppended EventKind = "appended"
	EventDeleted  EventKind = "deleted"
)

// LedgerEvent announces a ledger change. It carries no entry data: consumers
// re-read the ledger, which stays the only source of truth.
type LedgerEvent struct {
	ID        uuid.UUID `json:"id"`
	Kind      EventKind `json:"kind"`
	Index     int       `json:"index"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event for the entry at index; count is the ledger size after the change.
func NewLedgerEvent(kind EventKind, index, count int) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.New(),
		Kind:      kind,
		Index:     index,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and rejects unknown kinds.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case EventAppended, EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	return &msg, nil
}
