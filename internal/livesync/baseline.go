package livesync

import (
	"context"
	"errors"
	"sort"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"
	"kafe-backend/internal/status"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxNewOrderNotifications bir teslimattaki yeni sipariş bildirimi sınırı.
const MaxNewOrderNotifications = 3

const dayLayout = "2006-01-02"

type BaselineStore interface {
	LoadBaseline(ctx context.Context, viewer string) (day string, orderIDs []uint, ok bool, err error)
	SaveBaseline(ctx context.Context, viewer, day string, orderIDs []uint) error
}

// Baseline dashboard izleyicisinin bugün gördüğü siparişleri hatırlar.
// Bugün için kayıt yokken ilk teslimat sessizdir.
type Baseline struct {
	store  BaselineStore
	viewer string
	loc    *time.Location

	loaded bool
	ready  bool
	day    string
	seen   map[uint]struct{}
}

func NewBaseline(store BaselineStore, viewer string, loc *time.Location) *Baseline {
	if loc == nil {
		loc = time.UTC
	}
	return &Baseline{store: store, viewer: viewer, loc: loc, seen: make(map[uint]struct{})}
}

// Observe bugünün daha önce görülmemiş siparişlerini döner, en yeni önce ve
// en fazla MaxNewOrderNotifications tane.
func (b *Baseline) Observe(ctx context.Context, orders []models.Order, now time.Time) ([]models.Order, error) {
	day := now.In(b.loc).Format(dayLayout)

	if !b.loaded {
		storedDay, ids, ok, err := b.store.LoadBaseline(ctx, b.viewer)
		if err != nil {
			return nil, err
		}
		b.loaded = true
		b.day = day
		if ok && storedDay == day {
			for _, id := range ids {
				b.seen[id] = struct{}{}
			}
			b.ready = true
		}
	} else if b.day != day {
		// gün döndü: dünün siparişleri listede yok, yeni gün boş başlar
		b.day = day
		b.seen = make(map[uint]struct{})
	}

	if !b.ready {
		for _, o := range orders {
			b.seen[o.ID] = struct{}{}
		}
		b.ready = true
		return nil, b.save(ctx)
	}

	var fresh []models.Order
	changed := false
	for _, o := range orders {
		if _, ok := b.seen[o.ID]; ok {
			continue
		}
		b.seen[o.ID] = struct{}{}
		changed = true
		if o.CreatedAt.In(b.loc).Format(dayLayout) == day {
			fresh = append(fresh, o)
		}
	}
	if changed {
		if err := b.save(ctx); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return status.Newer(fresh[i].Snapshot(), fresh[j].Snapshot())
	})
	if len(fresh) > MaxNewOrderNotifications {
		fresh = fresh[:MaxNewOrderNotifications]
	}
	return fresh, nil
}

func (b *Baseline) save(ctx context.Context) error {
	ids := make([]uint, 0, len(b.seen))
	for id := range b.seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return b.store.SaveBaseline(ctx, b.viewer, b.day, ids)
}

// GormBaselineStore kayıtları notification_baselines tablosunda tutar.
type GormBaselineStore struct {
	db *gorm.DB
}

func NewGormBaselineStore(db *gorm.DB) *GormBaselineStore {
	return &GormBaselineStore{db: db}
}

func (s *GormBaselineStore) LoadBaseline(ctx context.Context, viewer string) (string, []uint, bool, error) {
	var row models.NotificationBaseline
	err := s.db.WithContext(ctx).Where("viewer = ?", viewer).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, apperr.Store("load baseline", err)
	}
	return row.Day, row.OrderIDs, true, nil
}

func (s *GormBaselineStore) SaveBaseline(ctx context.Context, viewer, day string, orderIDs []uint) error {
	row := models.NotificationBaseline{Viewer: viewer, Day: day, OrderIDs: orderIDs}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "viewer"}},
		DoUpdates: clause.AssignmentColumns([]string{"day", "order_ids", "updated_at"}),
	}).Create(&row).Error
	return apperr.Store("save baseline", err)
}
