// Package settings kafe profili ve tema belgelerini saklar.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/audit"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KeyCafe  = "cafe"
	KeyTheme = "theme"
)

type Social struct {
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	Twitter   string `json:"twitter"`
}

type Cafe struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	WorkingHours string `json:"working_hours"`
	Description  string `json:"description"`
	Website      string `json:"website"`
	Currency     string `json:"currency"`
	Social       Social `json:"social_media"`
}

type Theme struct {
	DarkMode     bool   `json:"dark_mode"`
	PrimaryColor string `json:"primary_color"`
	FontSize     string `json:"font_size"`
}

func DefaultCafe() Cafe {
	return Cafe{
		Name:         "Kahve Dükkanı",
		Address:      "İstanbul, Türkiye",
		Phone:        "+90 212 345 67 89",
		Email:        "info@kahvedukkani.com",
		WorkingHours: "09:00 - 22:00",
		Currency:     "TRY",
	}
}

func DefaultTheme() Theme {
	return Theme{PrimaryColor: "blue", FontSize: "medium"}
}

func (c Cafe) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: kafe adı zorunlu", apperr.ErrInvalidInput)
	}
	return nil
}

func (t Theme) validate() error {
	switch t.FontSize {
	case "small", "medium", "large":
		return nil
	}
	return fmt.Errorf("%w: yazı boyutu small, medium veya large olmalı", apperr.ErrInvalidInput)
}

type Service struct {
	db  *gorm.DB
	bus *livesync.Bus
	now func() time.Time
}

func NewService(db *gorm.DB, bus *livesync.Bus) *Service {
	return &Service{db: db, bus: bus, now: func() time.Time { return time.Now().UTC() }}
}

// load key altındaki belgeyi dst'ye açar, kayıt yoksa dst olduğu gibi kalır.
func (s *Service) load(ctx context.Context, key string, dst any) error {
	var row models.Setting
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Store("load setting", err)
	}
	if err := json.Unmarshal([]byte(row.Value), dst); err != nil {
		return apperr.Store("decode setting", err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, key string, before, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	row := models.Setting{Key: key, Value: string(b), UpdatedAt: s.now()}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntitySetting,
			Action:      models.AuditActionUpdate,
			Description: "Ayarlar güncellendi: " + key,
			Before:      before,
			After:       v,
		})
	})
	if err != nil {
		return apperr.Store("save setting", err)
	}
	s.bus.Publish(livesync.Signal{Kind: livesync.KindCollectionChanged, Topic: livesync.TopicSettings, At: row.UpdatedAt})
	return nil
}

func (s *Service) Cafe(ctx context.Context) (Cafe, error) {
	c := DefaultCafe()
	return c, s.load(ctx, KeyCafe, &c)
}

func (s *Service) SaveCafe(ctx context.Context, c Cafe) (Cafe, error) {
	if err := c.validate(); err != nil {
		return Cafe{}, err
	}
	if c.Currency == "" {
		c.Currency = "TRY"
	}
	before, err := s.Cafe(ctx)
	if err != nil {
		return Cafe{}, err
	}
	return c, s.save(ctx, KeyCafe, before, c)
}

func (s *Service) Theme(ctx context.Context) (Theme, error) {
	t := DefaultTheme()
	return t, s.load(ctx, KeyTheme, &t)
}

func (s *Service) SaveTheme(ctx context.Context, t Theme) (Theme, error) {
	if t.FontSize == "" {
		t.FontSize = "medium"
	}
	if err := t.validate(); err != nil {
		return Theme{}, err
	}
	before, err := s.Theme(ctx)
	if err != nil {
		return Theme{}, err
	}
	return t, s.save(ctx, KeyTheme, before, t)
}
