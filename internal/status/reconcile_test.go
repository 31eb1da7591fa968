package status

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func at(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }

func TestSelectCurrentOrder_NoOrders(t *testing.T) {
	assert.Equal(t, -1, SelectCurrentOrder(nil))
	assert.Equal(t, EmptyNoOrder, EmptyStateFor(nil))
}

func TestSelectCurrentOrder_SkipsCompleted(t *testing.T) {
	orders := []OrderSnapshot{
		{ID: 1, Status: OrderCompleted, CreatedAt: at(1)},
		{ID: 2, Status: OrderPending, CreatedAt: at(2)},
	}
	assert.Equal(t, 1, SelectCurrentOrder(orders))
	assert.Equal(t, EmptyNone, EmptyStateFor(orders))
}

func TestSelectCurrentOrder_PicksLatestActive(t *testing.T) {
	orders := []OrderSnapshot{
		{ID: 1, Status: OrderPreparing, CreatedAt: at(1)},
		{ID: 2, Status: OrderCancelled, CreatedAt: at(9)},
		{ID: 3, Status: OrderPending, CreatedAt: at(5)},
		{ID: 4, Status: OrderServed, CreatedAt: at(7)},
	}
	assert.Equal(t, 2, SelectCurrentOrder(orders))
}

func TestSelectCurrentOrder_TieBrokenByID(t *testing.T) {
	orders := []OrderSnapshot{
		{ID: 8, Status: OrderPending, CreatedAt: at(3)},
		{ID: 11, Status: OrderPending, CreatedAt: at(3)},
		{ID: 9, Status: OrderPending, CreatedAt: at(3)},
	}
	assert.Equal(t, 1, SelectCurrentOrder(orders))

	reversed := []OrderSnapshot{orders[2], orders[1], orders[0]}
	assert.Equal(t, uint(11), reversed[SelectCurrentOrder(reversed)].ID)
}

func TestSelectCurrentOrder_ServedIsNotActive(t *testing.T) {
	orders := []OrderSnapshot{{ID: 1, Status: OrderServed, CreatedAt: at(1)}}
	assert.Equal(t, -1, SelectCurrentOrder(orders))
	assert.Equal(t, EmptyOrderCompleted, EmptyStateFor(orders))
}

func TestEmptyStateFor(t *testing.T) {
	tests := []struct {
		name   string
		orders []OrderSnapshot
		want   EmptyState
	}{
		{"latest completed", []OrderSnapshot{{ID: 1, Status: OrderCompleted, CreatedAt: at(1)}}, EmptyNoOrder},
		{"latest cancelled", []OrderSnapshot{
			{ID: 1, Status: OrderServed, CreatedAt: at(1)},
			{ID: 2, Status: OrderCancelled, CreatedAt: at(2)},
		}, EmptyNoOrder},
		{"latest served", []OrderSnapshot{
			{ID: 1, Status: OrderCompleted, CreatedAt: at(1)},
			{ID: 2, Status: OrderServed, CreatedAt: at(2)},
		}, EmptyOrderCompleted},
		{"active delivered", []OrderSnapshot{{ID: 1, Status: OrderDelivered, CreatedAt: at(1)}}, EmptyNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmptyStateFor(tt.orders))
		})
	}
}

func TestTableStatusForOrder(t *testing.T) {
	tests := []struct {
		in   OrderStatus
		want TableStatus
		ok   bool
	}{
		{OrderPending, TablePending, true},
		{OrderConfirmed, TablePreparing, true},
		{OrderPreparing, TablePreparing, true},
		{OrderReady, TableDelivered, true},
		{OrderServed, TableDelivered, true},
		{OrderDelivered, TableDelivered, true},
		{OrderCompleted, "", false},
		{OrderCancelled, "", false},
	}
	for _, tt := range tests {
		got, ok := TableStatusForOrder(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestOrderStatusForTable(t *testing.T) {
	got, ok := OrderStatusForTable(TableOrdered)
	assert.True(t, ok)
	assert.Equal(t, OrderConfirmed, got)

	got, ok = OrderStatusForTable(TableAvailable)
	assert.True(t, ok)
	assert.Equal(t, OrderCompleted, got)

	_, ok = OrderStatusForTable(TableMaintenance)
	assert.False(t, ok)
}

func TestDisplayFor(t *testing.T) {
	tests := []struct {
		in       OrderStatus
		key      DisplayKey
		progress int
	}{
		{OrderPending, DisplayReceived, 25},
		{OrderConfirmed, DisplayPreparing, 50},
		{OrderPreparing, DisplayPreparing, 50},
		{OrderReady, DisplayReady, 75},
		{OrderDelivered, DisplayDelivered, 100},
		{OrderCancelled, DisplayCancelled, 0},
		{OrderStatus("bogus"), DisplayReceived, 25},
	}
	for _, tt := range tests {
		d := DisplayFor(tt.in)
		assert.Equal(t, tt.key, d.Key, tt.in)
		assert.Equal(t, tt.progress, d.Progress, tt.in)
	}
	assert.True(t, DisplayFor(OrderDelivered).CanReorder)
	assert.False(t, DisplayFor(OrderReady).Terminal)
}

func TestElapsedMinutes(t *testing.T) {
	assert.Equal(t, 0, ElapsedMinutes(time.Time{}, t0))
	assert.Equal(t, 0, ElapsedMinutes(at(5), t0))
	assert.Equal(t, 14, ElapsedMinutes(t0, t0.Add(14*time.Minute+59*time.Second)))
}

func newestFirst(orders []OrderSnapshot) {
	sort.SliceStable(orders, func(i, j int) bool { return Newer(orders[i], orders[j]) })
}

func TestNewer_TimeThenID(t *testing.T) {
	orders := []OrderSnapshot{
		{ID: 1, CreatedAt: at(1)},
		{ID: 3, CreatedAt: at(3)},
		{ID: 2, CreatedAt: at(3)},
	}
	newestFirst(orders)
	require.Len(t, orders, 3)
	assert.Equal(t, []uint{3, 2, 1}, []uint{orders[0].ID, orders[1].ID, orders[2].ID})
}
