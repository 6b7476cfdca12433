package amqp

import (
	"encoding/json"
	"time"

	"expenseweb/internal/core"
)

// ActivityMessage carries one form submission outcome to the activity queue.
type ActivityMessage struct {
	Activity  core.Activity `json:"activity"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewActivityMessage(a core.Activity) *ActivityMessage {
	return &ActivityMessage{Activity: a, Timestamp: time.Now().UTC()}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON creates a message from JSON bytes
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
