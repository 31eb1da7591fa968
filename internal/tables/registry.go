// Package tables kafe masalarını yönetir: numara, kapasite, yerleşim konumu
// ve görünen durum.
package tables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/audit"
	"kafe-backend/internal/floorplan"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"
	"kafe-backend/internal/status"

	"gorm.io/gorm"
)

type Registry struct {
	db     *gorm.DB
	bus    *livesync.Bus
	layout floorplan.Size
	now    func() time.Time
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(db *gorm.DB, bus *livesync.Bus, layout floorplan.Size, opts ...Option) *Registry {
	r := &Registry{
		db:     db,
		bus:    bus,
		layout: layout,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) Layout() floorplan.Size { return r.layout }

// ListTables masaları numara sırasıyla döner.
func (r *Registry) ListTables(ctx context.Context) ([]models.Table, error) {
	var list []models.Table
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&list).Error; err != nil {
		return nil, apperr.Store("list tables", err)
	}
	for i := range list {
		list[i].Status = list[i].CurrentStatus()
	}
	return list, nil
}

// WatchTables masa listesini hemen ve her masa değişikliğinden sonra gönderir.
func (r *Registry) WatchTables(ctx context.Context) <-chan livesync.Update[[]models.Table] {
	return livesync.Watch(ctx, r.bus, r.ListTables, livesync.TopicTables)
}

func (r *Registry) Get(ctx context.Context, id uint) (models.Table, error) {
	var t models.Table
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return models.Table{}, apperr.Store("get table", err)
	}
	t.Status = t.CurrentStatus()
	return t, nil
}

// Load masayı tx içinde okur.
func Load(tx *gorm.DB, id uint) (models.Table, error) {
	var t models.Table
	if err := tx.First(&t, id).Error; err != nil {
		return models.Table{}, apperr.Store("load table", err)
	}
	t.Status = t.CurrentStatus()
	return t, nil
}

// Transition, masa makinesini kontrol ettikten sonra t'yi to durumuna
// taşır. Bir şey yazıldıysa true döner.
func Transition(tx *gorm.DB, t *models.Table, to status.TableStatus, now time.Time) (bool, error) {
	if err := status.CheckTableTransition(t.CurrentStatus(), to); err != nil {
		return false, fmt.Errorf("masa %d: %w", t.Number, err)
	}
	return writeStatus(tx, t, to, now)
}

// Derive, siparişten türeyen masa durumunu yazar. Sipariş esas alınır,
// masa makinesinde kenar olmasa da masa siparişi izler.
func Derive(tx *gorm.DB, t *models.Table, to status.TableStatus, now time.Time) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: unknown table status %q", apperr.ErrInvalidInput, to)
	}
	return writeStatus(tx, t, to, now)
}

func writeStatus(tx *gorm.DB, t *models.Table, to status.TableStatus, now time.Time) (bool, error) {
	if t.CurrentStatus() == to {
		return false, nil
	}
	err := tx.Model(&models.Table{}).Where("id = ?", t.ID).
		Updates(map[string]any{"status": to, "updated_at": now}).Error
	if err != nil {
		return false, apperr.Store("update table status", err)
	}
	t.Status = to
	t.UpdatedAt = now
	return true, nil
}

var errOpenOrders = errors.New("açık siparişi olan masa boşaltılamaz, masayı temizleyin")

// checkFree, açık siparişi olan masanın doğrudan available yapılmasını
// engeller. Siparişleri tamamlayan yol sipariş defterindeki ClearTable.
func checkFree(tx *gorm.DB, t models.Table, to status.TableStatus) error {
	if to != status.TableAvailable || t.CurrentStatus() == to {
		return nil
	}
	var open int64
	err := tx.Model(&models.Order{}).
		Where("table_id = ? AND status NOT IN ?", t.ID, []status.OrderStatus{status.OrderCompleted, status.OrderCancelled}).
		Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return fmt.Errorf("masa %d: %w: %v", t.Number, apperr.ErrIllegalTransition, errOpenOrders)
	}
	return nil
}

// StatusSignal masa durumu yazıldıktan sonra yayınlanan sinyal.
func StatusSignal(t models.Table) livesync.Signal {
	return livesync.Signal{
		Kind:        livesync.KindTableStatusChanged,
		Topic:       livesync.TopicTables,
		TableID:     t.ID,
		TableNumber: t.Number,
		Status:      string(t.Status),
		At:          t.UpdatedAt,
	}
}

func (r *Registry) changed(t models.Table) {
	r.bus.Publish(livesync.Signal{Kind: livesync.KindCollectionChanged, Topic: livesync.TopicTables, TableID: t.ID, TableNumber: t.Number})
}

// SetTableStatus masanın görünen durumunu yazar, siparişlere dokunmaz.
// Açık siparişi olan masa burada boşaltılamaz; bunun için ClearTable var.
func (r *Registry) SetTableStatus(ctx context.Context, id uint, to status.TableStatus) (models.Table, error) {
	var (
		t       models.Table
		written bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if t, err = Load(tx, id); err != nil {
			return err
		}
		before := t
		if err := checkFree(tx, t, to); err != nil {
			return err
		}
		if written, err = Transition(tx, &t, to, r.now()); err != nil || !written {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityTable,
			EntityID:    t.ID,
			Action:      models.AuditActionStatus,
			Description: fmt.Sprintf("Masa %d: %s → %s", t.Number, before.Status, t.Status),
			Before:      before,
			After:       t,
		})
	})
	if err != nil {
		return models.Table{}, apperr.Store("set table status", err)
	}
	if written {
		r.bus.Publish(StatusSignal(t))
	}
	return t, nil
}

// MoveTable yerleşim konumunu plana sığdırarak kaydeder.
func (r *Registry) MoveTable(ctx context.Context, id uint, x, y float64) (models.Table, error) {
	p := r.layout.Clamp(x, y)
	var t models.Table
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if t, err = Load(tx, id); err != nil {
			return err
		}
		t.PositionX, t.PositionY, t.UpdatedAt = p.X, p.Y, r.now()
		return tx.Model(&models.Table{}).Where("id = ?", id).Updates(map[string]any{
			"position_x": p.X,
			"position_y": p.Y,
			"updated_at": t.UpdatedAt,
		}).Error
	})
	if err != nil {
		return models.Table{}, apperr.Store("move table", err)
	}
	r.changed(t)
	return t, nil
}

type NewTable struct {
	Number      int
	Capacity    int
	Status      status.TableStatus
	Description string
}

func checkNumber(tx *gorm.DB, number int, exceptID uint) error {
	if number <= 0 {
		return fmt.Errorf("%w: masa numarası pozitif olmalı", apperr.ErrInvalidInput)
	}
	var count int64
	q := tx.Model(&models.Table{}).Where("number = ?", number)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("masa %d: %w", number, apperr.ErrDuplicateNumber)
	}
	return nil
}

func (r *Registry) CreateTable(ctx context.Context, in NewTable) (models.Table, error) {
	if in.Capacity <= 0 {
		return models.Table{}, fmt.Errorf("%w: kapasite pozitif olmalı", apperr.ErrInvalidInput)
	}
	st := in.Status.Or()
	if !st.Valid() {
		return models.Table{}, fmt.Errorf("%w: bilinmeyen masa durumu %q", apperr.ErrInvalidInput, in.Status)
	}

	now := r.now()
	t := models.Table{
		Number:      in.Number,
		Capacity:    in.Capacity,
		Status:      st,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkNumber(tx, in.Number, 0); err != nil {
			return err
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityTable,
			EntityID:    t.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Masa %d eklendi", t.Number),
			After:       t,
		})
	})
	if err != nil {
		return models.Table{}, apperr.Store("create table", err)
	}
	r.changed(t)
	return t, nil
}

// TablePatch yöneticinin değiştirebildiği alanlar, nil değişmez demek.
type TablePatch struct {
	Number      *int
	Capacity    *int
	Description *string
	Status      *status.TableStatus
}

func (r *Registry) UpdateTable(ctx context.Context, id uint, p TablePatch) (models.Table, error) {
	var (
		t             models.Table
		statusChanged bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if t, err = Load(tx, id); err != nil {
			return err
		}
		before := t
		now := r.now()

		updates := map[string]any{}
		if p.Number != nil && *p.Number != t.Number {
			if err := checkNumber(tx, *p.Number, id); err != nil {
				return err
			}
			updates["number"] = *p.Number
			t.Number = *p.Number
		}
		if p.Capacity != nil {
			if *p.Capacity <= 0 {
				return fmt.Errorf("%w: kapasite pozitif olmalı", apperr.ErrInvalidInput)
			}
			updates["capacity"] = *p.Capacity
			t.Capacity = *p.Capacity
		}
		if p.Description != nil {
			updates["description"] = *p.Description
			t.Description = *p.Description
		}
		if len(updates) > 0 {
			updates["updated_at"] = now
			t.UpdatedAt = now
			if err := tx.Model(&models.Table{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if p.Status != nil {
			if err := checkFree(tx, t, *p.Status); err != nil {
				return err
			}
			if statusChanged, err = Transition(tx, &t, *p.Status, now); err != nil {
				return err
			}
		}
		if len(updates) == 0 && !statusChanged {
			return nil
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityTable,
			EntityID:    t.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Masa %d güncellendi", t.Number),
			Before:      before,
			After:       t,
		})
	})
	if err != nil {
		return models.Table{}, apperr.Store("update table", err)
	}
	if statusChanged {
		r.bus.Publish(StatusSignal(t))
	}
	r.changed(t)
	return t, nil
}

// DeleteTable masayı siler, siparişleri defterde kalır.
func (r *Registry) DeleteTable(ctx context.Context, id uint) error {
	var t models.Table
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if t, err = Load(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Table{}, id).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityTable,
			EntityID:    t.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Masa %d silindi", t.Number),
			Before:      t,
		})
	})
	if err != nil {
		return apperr.Store("delete table", err)
	}
	r.changed(t)
	return nil
}

var errNotToggleable = errors.New("sadece boş veya bakımdaki masa değiştirilebilir")

// ToggleMaintenance masayı available ile maintenance arasında çevirir.
func (r *Registry) ToggleMaintenance(ctx context.Context, id uint) (models.Table, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return models.Table{}, err
	}
	switch t.Status {
	case status.TableAvailable:
		return r.SetTableStatus(ctx, id, status.TableMaintenance)
	case status.TableMaintenance:
		return r.SetTableStatus(ctx, id, status.TableAvailable)
	}
	return models.Table{}, fmt.Errorf("%w: %v", apperr.ErrIllegalTransition, errNotToggleable)
}
