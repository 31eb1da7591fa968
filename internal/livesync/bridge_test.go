package livesync

import (
	"encoding/json"
	"testing"

	"kafe-backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_OutgoingTagsOrigin(t *testing.T) {
	b := NewBridge("amqp://unused", NewBus(), logger.Nop())

	body, forward, err := b.outgoing(Signal{Kind: KindOrderCreated, Topic: TopicOrders, OrderID: 3})
	require.NoError(t, err)
	require.True(t, forward)

	var s Signal
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, b.origin, s.Origin)
	assert.Equal(t, uint(3), s.OrderID)

	_, forward, _ = b.outgoing(Signal{Topic: TopicOrders, Origin: "other"})
	assert.False(t, forward, "remote signals are not echoed back")
}

func TestBridge_ReceiveSkipsOwnSignals(t *testing.T) {
	bus := NewBus()
	b := NewBridge("amqp://unused", bus, logger.Nop())
	ch, cancel := bus.Subscribe()
	defer cancel()

	own, _ := json.Marshal(Signal{Topic: TopicTables, Origin: b.origin})
	require.NoError(t, b.receive(own))
	assert.Len(t, ch, 0)

	remote, _ := json.Marshal(Signal{Kind: KindTableStatusChanged, Topic: TopicTables, TableID: 4, Origin: "replica-2"})
	require.NoError(t, b.receive(remote))
	require.Len(t, ch, 1)
	got := <-ch
	assert.Equal(t, uint(4), got.TableID)
	assert.Equal(t, "replica-2", got.Origin)

	assert.Error(t, b.receive([]byte("{")))
}
