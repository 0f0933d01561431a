package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"accounting/internal/core"
)

// Message types multiplexed over the ledger events queue.
const (
	TypeTransactionRecorded = "transaction.recorded"
	TypeTransactionDeleted  = "transaction.deleted"
)

// Message is the event envelope published after a successful ledger
// mutation. Recorded events carry the full transaction: the mirror worker
// cannot read the primary data file, which belongs to the server process.
type Message struct {
	Type        string            `json:"type"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	ID          string            `json:"id,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewTransactionRecordedMessage builds a recorded event for t.
func NewTransactionRecordedMessage(t core.Transaction) *Message {
	return &Message{
		Type:        TypeTransactionRecorded,
		Transaction: &t,
		ID:          t.ID,
		Timestamp:   time.Now().UTC(),
	}
}

// NewTransactionDeletedMessage builds a deleted event for the given id.
func NewTransactionDeletedMessage(id string) *Message {
	return &Message{
		Type:      TypeTransactionDeleted,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes and validates a message from JSON bytes.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case TypeTransactionRecorded:
		if msg.Transaction == nil {
			return nil, fmt.Errorf("recorded message without transaction")
		}
	case TypeTransactionDeleted:
		if msg.ID == "" {
			return nil, fmt.Errorf("deleted message without id")
		}
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return &msg, nil
}
