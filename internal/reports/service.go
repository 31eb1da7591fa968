package reports

import (
	"context"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewService(db *gorm.DB, loc *time.Location, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{db: db, loc: loc, now: now}
}

func (s *Service) ordersBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var list []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Find(&list).Error
	return list, apperr.Store("report orders", err)
}

func (s *Service) Report(ctx context.Context, p Period) (Report, error) {
	from, to, prevFrom := p.Range(s.now(), s.loc)

	current, err := s.ordersBetween(ctx, from, to.Add(time.Nanosecond))
	if err != nil {
		return Report{}, err
	}
	previous, err := s.ordersBetween(ctx, prevFrom, from)
	if err != nil {
		return Report{}, err
	}
	var menu []models.MenuItem
	if err := s.db.WithContext(ctx).Find(&menu).Error; err != nil {
		return Report{}, apperr.Store("report menu", err)
	}
	return Build(p, from, to, current, previous, menu, s.loc), nil
}
