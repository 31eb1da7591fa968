package status

import (
	"bytes"
	"testing"

	"kafe-backend/internal/apperr"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTransitions(t *testing.T) {
	assert.NoError(t, CheckOrderTransition(OrderPending, OrderConfirmed))
	assert.NoError(t, CheckOrderTransition(OrderReady, OrderServed))
	assert.NoError(t, CheckOrderTransition(OrderServed, OrderCompleted))
	assert.NoError(t, CheckOrderTransition(OrderPreparing, OrderPreparing), "same status is a no-op")

	err := CheckOrderTransition(OrderCompleted, OrderPending)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrIllegalTransition)

	assert.ErrorIs(t, CheckOrderTransition(OrderCancelled, OrderDelivered), apperr.ErrIllegalTransition)
	assert.ErrorIs(t, CheckOrderTransition(OrderDelivered, OrderPreparing), apperr.ErrIllegalTransition)
	assert.ErrorIs(t, CheckOrderTransition(OrderPending, "bogus"), apperr.ErrInvalidInput)
}

func TestTerminalOrdersHaveNoExit(t *testing.T) {
	for _, from := range []OrderStatus{OrderCompleted, OrderCancelled} {
		for _, to := range OrderStatuses {
			if to == from {
				continue
			}
			assert.False(t, CanAdvanceOrder(from, to), "%s -> %s", from, to)
		}
	}
}

func TestEveryNonTerminalOrderCanComplete(t *testing.T) {
	for _, from := range OrderStatuses {
		if from.IsTerminal() {
			continue
		}
		assert.True(t, CanAdvanceOrder(from, OrderCompleted), from)
	}
}

func TestTableTransitions(t *testing.T) {
	for _, from := range TableStatuses {
		assert.True(t, CanAdvanceTable(from, TableAvailable), "%s -> available", from)
	}
	assert.True(t, CanAdvanceTable("", TablePending), "empty status reads as available")
	assert.ErrorIs(t, CheckTableTransition(TableMaintenance, TablePending), apperr.ErrIllegalTransition)
	assert.ErrorIs(t, CheckTableTransition(TableAvailable, TableDelivered), apperr.ErrIllegalTransition)
	assert.NoError(t, CheckTableTransition(TableDelivered, TablePending))
}

// Meşgul masalarda siparişten türeyen hareketler makinede de yasal olmalı,
// masa yönetim ekranı aynı geçişleri sunuyor.
func TestDerivedTableMovesFromBusyTables(t *testing.T) {
	busy := []TableStatus{TablePending, TableOrdered, TablePreparing, TableDelivered, TableOccupied}
	for _, from := range busy {
		for _, os := range OrderStatuses {
			to, ok := TableStatusForOrder(os)
			if !ok {
				continue
			}
			assert.True(t, CanAdvanceTable(from, to), "%s -> %s (order %s)", from, to, os)
		}
	}
}

func TestParse(t *testing.T) {
	ts, err := ParseTableStatus("")
	require.NoError(t, err)
	assert.Equal(t, TableAvailable, ts)

	_, err = ParseTableStatus("dirty")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	os, err := ParseOrderStatus("ready")
	require.NoError(t, err)
	assert.Equal(t, OrderReady, os)
}

func TestRenderRules(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRules(&buf))

	g := goldie.New(t)
	g.Assert(t, "rules", buf.Bytes())
}
