package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"

	"gorm.io/gorm"
)

// Log'a yazılan varlık türleri.
const (
	EntityTable    = "table"
	EntityOrder    = "order"
	EntityMenuItem = "menu_item"
	EntityCategory = "category"
	EntityUser     = "user"
	EntitySetting  = "setting"
)

type Entry struct {
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Write audit kaydını tx ile, normalde anlattığı değişikliğin transaction'ı
// içinde yazar. İşlemi yapan ctx'teki oturumdan gelir, müşteri işlemlerinde yoktur.
func Write(ctx context.Context, tx *gorm.DB, e Entry) error {
	row := models.AuditLog{
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  marshal(e.Before),
		AfterData:   marshal(e.After),
	}
	if sess, ok := auth.SessionFrom(ctx); ok {
		uid := sess.UserID
		row.UserID = &uid
		row.UserName = sess.Name
	} else {
		row.UserName = "Müşteri"
	}

	if err := tx.Create(&row).Error; err != nil {
		return apperr.Store("audit log kaydedilemedi", err)
	}
	return nil
}

func marshal(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

type Filter struct {
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
}

type Service struct {
	db  *gorm.DB
	bus *livesync.Bus
	now func() time.Time
}

func NewService(db *gorm.DB, bus *livesync.Bus) *Service {
	return &Service{db: db, bus: bus, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, apperr.Store("list audit logs", err)
}

// undoable varlık türünü modeline ve yenilenecek konuya eşler. Siparişler
// yok, geçmişlerini durum makinesi yürütür. Masa durumu da makineye ait,
// güncelleme geri alınırken korunur.
var undoable = map[string]struct {
	newModel func() any
	topic    livesync.Topic
	keep     []string
}{
	EntityTable:    {func() any { return &models.Table{} }, livesync.TopicTables, []string{"status", "last_order_id", "last_order_number"}},
	EntityMenuItem: {func() any { return &models.MenuItem{} }, livesync.TopicCatalog, nil},
	EntityCategory: {func() any { return &models.Category{} }, livesync.TopicCatalog, nil},
}

// Undo masa, ürün ya da kategori üzerindeki ekleme/güncelleme/silmeyi geri
// alır ve geri almayı da log'a yazar.
func (s *Service) Undo(ctx context.Context, logID uint) error {
	var topic livesync.Topic

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, logID).Error; err != nil {
			return err
		}
		if entry.IsUndone {
			return fmt.Errorf("%w: bu işlem zaten geri alınmış", apperr.ErrInvalidInput)
		}
		kind, ok := undoable[entry.EntityType]
		if !ok {
			return fmt.Errorf("%w: %s kayıtları geri alınamaz", apperr.ErrInvalidInput, entry.EntityType)
		}
		topic = kind.topic

		switch entry.Action {
		case models.AuditActionCreate:
			if err := tx.Delete(kind.newModel(), entry.EntityID).Error; err != nil {
				return err
			}
		case models.AuditActionUpdate:
			m := kind.newModel()
			if err := json.Unmarshal([]byte(entry.BeforeData), m); err != nil {
				return fmt.Errorf("%w: önceki veri okunamadı", apperr.ErrInvalidInput)
			}
			q := tx
			if len(kind.keep) > 0 {
				q = q.Omit(kind.keep...)
			}
			if err := q.Save(m).Error; err != nil {
				return err
			}
		case models.AuditActionDelete:
			m := kind.newModel()
			if err := json.Unmarshal([]byte(entry.BeforeData), m); err != nil {
				return fmt.Errorf("%w: silinen veri okunamadı", apperr.ErrInvalidInput)
			}
			// aynı ID ile geri oluştur, siparişlerdeki referanslar bozulmasın
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: bu işlem türü geri alınamaz", apperr.ErrInvalidInput)
		}

		now := s.now()
		updates := map[string]any{"is_undone": true, "undone_at": now}
		if sess, ok := auth.SessionFrom(ctx); ok {
			updates["undone_by"] = sess.UserID
		}
		if err := tx.Model(&models.AuditLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
			return err
		}

		return Write(ctx, tx, Entry{
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Geri alındı: " + entry.Description,
			Before:      json.RawMessage(entry.AfterData),
			After:       json.RawMessage(entry.BeforeData),
		})
	})
	if err != nil {
		return apperr.Store("undo", err)
	}

	s.bus.Publish(livesync.Signal{Kind: livesync.KindCollectionChanged, Topic: topic})
	return nil
}
