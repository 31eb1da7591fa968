package livesync

import (
	"context"
	"testing"
	"time"

	"kafe-backend/internal/models"
	"kafe-backend/internal/status"
	"kafe-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func order(id uint, created time.Time) models.Order {
	return models.Order{ID: id, OrderNumber: "ORD-" + created.Format("150405"), Status: status.OrderPending, CreatedAt: created}
}

func TestBaseline_FirstDeliverySilentThenOneNew(t *testing.T) {
	ctx := context.Background()
	b := NewBaseline(NewGormBaselineStore(testutil.OpenDB(t)), "staff-1", time.UTC)

	orders := []models.Order{order(1, day0), order(2, day0.Add(time.Minute))}
	fresh, err := b.Observe(ctx, orders, day0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fresh)

	orders = append(orders, order(3, day0.Add(3*time.Minute)))
	fresh, err = b.Observe(ctx, orders, day0.Add(4*time.Minute))
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, uint(3), fresh[0].ID)

	fresh, err = b.Observe(ctx, orders, day0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestBaseline_CapsBurst(t *testing.T) {
	ctx := context.Background()
	b := NewBaseline(NewGormBaselineStore(testutil.OpenDB(t)), "staff-1", time.UTC)
	_, err := b.Observe(ctx, nil, day0)
	require.NoError(t, err)

	var orders []models.Order
	for i := uint(1); i <= 5; i++ {
		orders = append(orders, order(i, day0.Add(time.Duration(i)*time.Minute)))
	}
	fresh, err := b.Observe(ctx, orders, day0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, fresh, MaxNewOrderNotifications)
	assert.Equal(t, []uint{5, 4, 3}, []uint{fresh[0].ID, fresh[1].ID, fresh[2].ID})
}

func TestBaseline_PersistsAcrossViewers(t *testing.T) {
	ctx := context.Background()
	store := NewGormBaselineStore(testutil.OpenDB(t))

	first := NewBaseline(store, "staff-1", time.UTC)
	_, err := first.Observe(ctx, []models.Order{order(1, day0)}, day0)
	require.NoError(t, err)

	// aynı kullanıcı sayfayı yeniledi: kayıtlı taban çizgisi bugünün
	reloaded := NewBaseline(store, "staff-1", time.UTC)
	fresh, err := reloaded.Observe(ctx, []models.Order{order(1, day0), order(2, day0.Add(time.Minute))}, day0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, uint(2), fresh[0].ID)

	other := NewBaseline(store, "staff-2", time.UTC)
	fresh, err = other.Observe(ctx, []models.Order{order(1, day0), order(2, day0)}, day0.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestBaseline_StaleStoredDayIsColdStart(t *testing.T) {
	ctx := context.Background()
	store := NewGormBaselineStore(testutil.OpenDB(t))
	require.NoError(t, store.SaveBaseline(ctx, "staff-1", "2026-03-13", []uint{99}))

	b := NewBaseline(store, "staff-1", time.UTC)
	fresh, err := b.Observe(ctx, []models.Order{order(1, day0)}, day0)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	storedDay, ids, ok, err := store.LoadBaseline(ctx, "staff-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2026-03-14", storedDay)
	assert.Equal(t, []uint{1}, ids)
}

func TestBaseline_DayRollover(t *testing.T) {
	ctx := context.Background()
	b := NewBaseline(NewGormBaselineStore(testutil.OpenDB(t)), "staff-1", time.UTC)
	_, err := b.Observe(ctx, []models.Order{order(1, day0)}, day0)
	require.NoError(t, err)

	tomorrow := day0.Add(24 * time.Hour)
	fresh, err := b.Observe(ctx, []models.Order{order(2, tomorrow)}, tomorrow.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, uint(2), fresh[0].ID)
}

func TestBaseline_OnlyTodayNotifies(t *testing.T) {
	ctx := context.Background()
	b := NewBaseline(NewGormBaselineStore(testutil.OpenDB(t)), "staff-1", time.UTC)
	_, err := b.Observe(ctx, nil, day0)
	require.NoError(t, err)

	yesterday := order(7, day0.Add(-20*time.Hour))
	fresh, err := b.Observe(ctx, []models.Order{yesterday}, day0.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fresh)
}
