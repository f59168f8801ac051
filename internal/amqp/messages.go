package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReminderMessage carries one rendered reminder to the notifier process.
// The consumer re-reads the debt by DebtID before delivering, so a debt paid
// or deleted in the meantime is dropped.
type ReminderMessage struct {
	ID        string    `json:"id"`
	DebtID    int64     `json:"debt_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReminderMessage creates a reminder message with a fresh id
func NewReminderMessage(debtID int64, title, body string) *ReminderMessage {
	return &ReminderMessage{
		ID:        uuid.NewString(),
		DebtID:    debtID,
		Title:     title,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
