package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// PaymentEvent announces that a payment changed. It carries only the ID;
// consumers read the current state from storage.
type PaymentEvent struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPaymentEvent(id, action string) *PaymentEvent {
	return &PaymentEvent{
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (m *PaymentEvent) Validate() error {
	if m.ID == "" {
		return errors.New("payment event without id")
	}
	if m.Action != ActionUpsert && m.Action != ActionDelete {
		return fmt.Errorf("unknown payment event action %q", m.Action)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *PaymentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentEventFromJSON decodes and validates an event.
func PaymentEventFromJSON(data []byte) (*PaymentEvent, error) {
	var msg PaymentEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
