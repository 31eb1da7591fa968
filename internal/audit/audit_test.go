package audit

import (
	"context"
	"testing"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"
	"kafe-backend/internal/status"
	"kafe-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func staffCtx(id uint, name string) context.Context {
	return auth.WithSession(context.Background(), &auth.Session{ID: "s-1", UserID: id, Name: name, Role: models.RoleAdmin})
}

func TestWrite_Actor(t *testing.T) {
	db := testutil.OpenDB(t)

	require.NoError(t, Write(context.Background(), db, Entry{
		EntityType: EntityOrder, EntityID: 1, Action: models.AuditActionCreate, Description: "Sipariş verildi",
	}))
	require.NoError(t, Write(staffCtx(7, "Zeynep"), db, Entry{
		EntityType: EntityTable, EntityID: 2, Action: models.AuditActionStatus, Description: "Masa 2",
		Before: map[string]string{"status": "available"}, After: map[string]string{"status": "maintenance"},
	}))

	var logs []models.AuditLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)

	assert.Nil(t, logs[0].UserID)
	assert.Equal(t, "Müşteri", logs[0].UserName)
	assert.Equal(t, "null", logs[0].BeforeData)

	require.NotNil(t, logs[1].UserID)
	assert.Equal(t, uint(7), *logs[1].UserID)
	assert.Equal(t, "Zeynep", logs[1].UserName)
	assert.JSONEq(t, `{"status":"maintenance"}`, logs[1].AfterData)
}

func TestList_Filters(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewService(db, livesync.NewBus())
	ctx := staffCtx(3, "Ali")

	for i := uint(1); i <= 3; i++ {
		require.NoError(t, Write(ctx, db, Entry{EntityType: EntityTable, EntityID: i, Action: models.AuditActionUpdate}))
	}
	require.NoError(t, Write(context.Background(), db, Entry{EntityType: EntityOrder, EntityID: 1, Action: models.AuditActionCreate}))

	all, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, EntityOrder, all[0].EntityType, "newest first")

	tables, err := svc.List(context.Background(), Filter{EntityType: EntityTable, EntityID: 2})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, uint(2), tables[0].EntityID)

	byUser, err := svc.List(context.Background(), Filter{UserID: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)
}

func writeTableUpdate(t *testing.T, db *gorm.DB, ctx context.Context, before, after models.Table) {
	t.Helper()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&after).Error; err != nil {
			return err
		}
		return Write(ctx, tx, Entry{
			EntityType: EntityTable, EntityID: after.ID, Action: models.AuditActionUpdate,
			Description: "Masa 4 güncellendi", Before: before, After: after,
		})
	}))
}

func TestUndo_TableUpdateKeepsStatus(t *testing.T) {
	db := testutil.OpenDB(t)
	bus := livesync.NewBus()
	svc := NewService(db, bus)
	ctx := staffCtx(1, "Admin")

	table := models.Table{Number: 4, Capacity: 2, Status: status.TableAvailable, Description: "cam kenarı"}
	require.NoError(t, db.Create(&table).Error)

	edited := table
	edited.Capacity = 6
	edited.Description = "teras"
	writeTableUpdate(t, db, ctx, table, edited)

	// müşteri bu arada sipariş verdi
	require.NoError(t, db.Model(&models.Table{}).Where("id = ?", table.ID).Update("status", status.TablePending).Error)

	var entry models.AuditLog
	require.NoError(t, db.Where("entity_type = ? AND action = ?", EntityTable, models.AuditActionUpdate).First(&entry).Error)

	signals, cancel := bus.Subscribe(livesync.TopicTables)
	defer cancel()

	require.NoError(t, svc.Undo(ctx, entry.ID))

	var got models.Table
	require.NoError(t, db.First(&got, table.ID).Error)
	assert.Equal(t, 2, got.Capacity)
	assert.Equal(t, "cam kenarı", got.Description)
	assert.Equal(t, status.TablePending, got.Status, "status is owned by the order flow")

	require.NoError(t, db.First(&entry, entry.ID).Error)
	assert.True(t, entry.IsUndone)
	require.NotNil(t, entry.UndoneBy)
	assert.Equal(t, uint(1), *entry.UndoneBy)

	var undoCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionUndo).Count(&undoCount).Error)
	assert.Equal(t, int64(1), undoCount)

	select {
	case s := <-signals:
		assert.Equal(t, livesync.KindCollectionChanged, s.Kind)
	default:
		t.Fatal("undo did not publish a tables change")
	}

	err := svc.Undo(ctx, entry.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "second undo")
}

func TestUndo_DeleteRestoresSameID(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewService(db, livesync.NewBus())
	ctx := staffCtx(1, "Admin")

	cat := models.Category{Name: "Tatlılar", SortOrder: 2, IsActive: true}
	require.NoError(t, db.Create(&cat).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Category{}, cat.ID).Error; err != nil {
			return err
		}
		return Write(ctx, tx, Entry{EntityType: EntityCategory, EntityID: cat.ID, Action: models.AuditActionDelete, Before: cat})
	}))

	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditActionDelete).First(&entry).Error)
	require.NoError(t, svc.Undo(ctx, entry.ID))

	var back models.Category
	require.NoError(t, db.First(&back, cat.ID).Error)
	assert.Equal(t, "Tatlılar", back.Name)
}

func TestUndo_Rejections(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewService(db, livesync.NewBus())
	ctx := context.Background()

	require.NoError(t, Write(ctx, db, Entry{EntityType: EntityOrder, EntityID: 1, Action: models.AuditActionCreate}))
	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)

	assert.ErrorIs(t, svc.Undo(ctx, entry.ID), apperr.ErrInvalidInput)
	assert.ErrorIs(t, svc.Undo(ctx, 999), apperr.ErrNotFound)
}
