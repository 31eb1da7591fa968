package livesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_TopicFiltering(t *testing.T) {
	bus := NewBus()
	tables, cancelTables := bus.Subscribe(TopicTables)
	defer cancelTables()
	all, cancelAll := bus.Subscribe()
	defer cancelAll()

	bus.Publish(Signal{Kind: KindOrderCreated, Topic: TopicOrders, OrderID: 1})
	bus.Publish(Signal{Kind: KindTableStatusChanged, Topic: TopicTables, TableID: 2})

	got := <-tables
	assert.Equal(t, uint(2), got.TableID)
	assert.False(t, got.At.IsZero())
	assert.Len(t, tables, 0)

	assert.Equal(t, KindOrderCreated, (<-all).Kind)
	assert.Equal(t, KindTableStatusChanged, (<-all).Kind)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Signal{Topic: TopicOrders})
	}
	assert.Equal(t, uint64(10), bus.Dropped())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
	bus.Publish(Signal{Topic: TopicOrders})
}
