package amqp

import (
	"encoding/json"
	"time"
)

// EntrySavedMessage is the lightweight event published after a ledger entry
// is saved. It carries only the entry ID; the worker fetches the full entry
// from the store.
type EntrySavedMessage struct {
	EntryID   string    `json:"entry_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntrySavedMessage creates a new event for the given entry ID
func NewEntrySavedMessage(entryID string) *EntrySavedMessage {
	return &EntrySavedMessage{
		EntryID:   entryID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntrySavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntrySavedMessageFromJSON creates a message from JSON bytes
func EntrySavedMessageFromJSON(data []byte) (*EntrySavedMessage, error) {
	var msg EntrySavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
