package websocket

import (
	"encoding/json"
	"time"
)

// Message types for WebSocket communication
const (
	MessageTypeConnection         = "connection"
	MessageTypeHeartbeat          = "heartbeat"
	MessageTypeDeviceStateChanged = "device_state_changed"
	MessageTypeSystemStatus       = "system_status"
	MessageTypePong               = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() []byte {
	m.Timestamp = time.Now().UTC()
	data, _ := json.Marshal(m)
	return data
}

// DeviceStateChangedMessage creates a message for a device snapshot update.
// The snapshot is embedded as-is so clients receive the same shape the REST
// endpoints return.
func DeviceStateChangedMessage(entityID string, snapshot interface{}) Message {
	return Message{
		Type: MessageTypeDeviceStateChanged,
		Data: map[string]interface{}{
			"entity_id": entityID,
			"snapshot":  snapshot,
		},
	}
}

// SystemStatusMessage creates a message for system status updates
func SystemStatusMessage(status string, details map[string]interface{}) Message {
	return Message{
		Type: MessageTypeSystemStatus,
		Data: map[string]interface{}{
			"status":  status,
			"details": details,
		},
	}
}
