package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageToJSON(t *testing.T) {
	msg := Message{
		Type: MessageTypeSystemStatus,
		Data: map[string]interface{}{"status": "healthy"},
	}

	raw := msg.ToJSON()

	var decoded Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, MessageTypeSystemStatus, decoded.Type)
	assert.Equal(t, "healthy", decoded.Data["status"])
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestDeviceStateChangedMessage(t *testing.T) {
	snapshot := map[string]interface{}{"state": "locked", "connected": true}
	msg := DeviceStateChangedMessage("lock.front_door", snapshot)

	assert.Equal(t, MessageTypeDeviceStateChanged, msg.Type)
	assert.Equal(t, "lock.front_door", msg.Data["entity_id"])
	assert.Equal(t, snapshot, msg.Data["snapshot"])
}

func TestClientEntitySubscriptions(t *testing.T) {
	client := &Client{entities: make(map[string]bool)}

	// No subscriptions means the client receives everything.
	assert.True(t, client.WantsEntity("lock.front_door"))
	assert.True(t, client.WantsEntity("switch.garden"))

	client.entities["lock.front_door"] = true
	assert.True(t, client.WantsEntity("lock.front_door"))
	assert.False(t, client.WantsEntity("switch.garden"))

	delete(client.entities, "lock.front_door")
	assert.True(t, client.WantsEntity("switch.garden"))
}
