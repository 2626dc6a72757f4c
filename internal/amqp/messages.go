package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"portafoglio/internal/resources"
)

// ChangeMessage announces that a resource collection changed. It carries
// no entity data; consumers refetch the collection.
type ChangeMessage struct {
	Resource  string       `json:"resource"`
	Op        resources.Op `json:"op"`
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewChangeMessage stamps a message with the current time.
func NewChangeMessage(resource string, op resources.Op, id string) *ChangeMessage {
	return &ChangeMessage{
		Resource:  resource,
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is "resource.<name>.<op>".
func (m *ChangeMessage) RoutingKey() string {
	return "resource." + m.Resource + "." + string(m.Op)
}

// ToJSON encodes the message.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Resource == "" {
		return nil, fmt.Errorf("change message without resource")
	}
	return &msg, nil
}
