package amqp

import (
	"testing"
	"time"
)

func TestNewEntrySavedMessage(t *testing.T) {
	msg := NewEntrySavedMessage("entry-123")

	if msg.EntryID != "entry-123" {
		t.Errorf("NewEntrySavedMessage() EntryID = %v, want entry-123", msg.EntryID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewEntrySavedMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewEntrySavedMessage() Timestamp should be recent")
	}
}

func TestEntrySavedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &EntrySavedMessage{
		EntryID:   "entry-123",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := EntrySavedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("EntrySavedMessageFromJSON() error = %v", err)
	}

	if parsed.EntryID != msg.EntryID {
		t.Errorf("Parsed EntryID = %v, want %v", parsed.EntryID, msg.EntryID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestEntrySavedMessage_InvalidJSON(t *testing.T) {
	if _, err := EntrySavedMessageFromJSON([]byte(`{"entry_id": 42`)); err == nil {
		t.Error("EntrySavedMessageFromJSON() should fail with invalid JSON")
	}
}
