// Package staff kafe çalışanlarını yönetir: hesap, rol, aktiflik ve vardiya.
package staff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/audit"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"

	"gorm.io/gorm"
)

// SessionRevoker kullanıcının tüm oturumlarını kapatır.
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID uint) error
}

type Service struct {
	db       *gorm.DB
	bus      *livesync.Bus
	sessions SessionRevoker
	now      func() time.Time
}

func NewService(db *gorm.DB, bus *livesync.Bus, sessions SessionRevoker) *Service {
	return &Service{db: db, bus: bus, sessions: sessions, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) changed(u models.User) {
	st := "off_shift"
	if u.OnShift {
		st = "on_shift"
	}
	s.bus.Publish(livesync.Signal{Kind: livesync.KindCollectionChanged, Topic: livesync.TopicStaff, Status: st, At: s.now()})
}

// ListStaff çalışanları isim sırasıyla döner.
func (s *Service) ListStaff(ctx context.Context) ([]models.User, error) {
	var list []models.User
	err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&list).Error
	return list, apperr.Store("list staff", err)
}

func (s *Service) Get(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	return u, apperr.Store("get staff", err)
}

type Summary struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	OnShift int `json:"on_shift"`
	Admins  int `json:"admins"`
}

func Summarize(list []models.User) Summary {
	sum := Summary{Total: len(list)}
	for _, u := range list {
		if u.IsActive {
			sum.Active++
		}
		if u.OnShift {
			sum.OnShift++
		}
		if u.Role == models.RoleAdmin {
			sum.Admins++
		}
	}
	return sum
}

type NewStaff struct {
	Name     string
	Email    string
	Phone    string
	Position string
	Role     models.UserRole
	Password string
	IsActive bool
	OnShift  bool
}

func emailTaken(tx *gorm.DB, email string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.User{}).Where("email = ?", email)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, email)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in NewStaff) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = auth.NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = models.RoleStaff
	}
	switch {
	case in.Name == "" || in.Email == "":
		return models.User{}, fmt.Errorf("%w: isim ve email zorunlu", apperr.ErrInvalidInput)
	case !in.Role.Valid():
		return models.User{}, fmt.Errorf("%w: bilinmeyen rol %q", apperr.ErrInvalidInput, in.Role)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	now := s.now()
	u := models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		Position:     strings.TrimSpace(in.Position),
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     in.IsActive,
		OnShift:      in.OnShift,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := emailTaken(tx, u.Email, 0); err != nil {
			return err
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityUser,
			EntityID:    u.ID,
			Action:      models.AuditActionCreate,
			Description: "Personel eklendi: " + u.Name,
			After:       u,
		})
	})
	if err != nil {
		return models.User{}, apperr.Store("create staff", err)
	}
	s.changed(u)
	return u, nil
}

type Patch struct {
	Name     *string
	Email    *string
	Phone    *string
	Position *string
	Role     *models.UserRole
	IsActive *bool
	OnShift  *bool
	Password *string
}

// selfGuard oturumdaki yöneticiyi dışarıda bırakacak değişikliği reddeder.
func selfGuard(ctx context.Context, id uint) error {
	if sess, ok := auth.SessionFrom(ctx); ok && sess.UserID == id {
		return fmt.Errorf("%w: kendi hesabınızı pasifleştiremez veya silemezsiniz", apperr.ErrForbidden)
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id uint, p Patch) (models.User, error) {
	var hash string
	if p.Password != nil && *p.Password != "" {
		var err error
		if hash, err = auth.HashPassword(*p.Password); err != nil {
			return models.User{}, err
		}
	}

	var (
		u      models.User
		revoke bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		before := u
		if p.Name != nil {
			if u.Name = strings.TrimSpace(*p.Name); u.Name == "" {
				return fmt.Errorf("%w: isim boş olamaz", apperr.ErrInvalidInput)
			}
		}
		if p.Email != nil {
			email := auth.NormalizeEmail(*p.Email)
			if email == "" {
				return fmt.Errorf("%w: email boş olamaz", apperr.ErrInvalidInput)
			}
			if err := emailTaken(tx, email, id); err != nil {
				return err
			}
			u.Email = email
		}
		if p.Phone != nil {
			u.Phone = strings.TrimSpace(*p.Phone)
		}
		if p.Position != nil {
			u.Position = strings.TrimSpace(*p.Position)
		}
		if p.Role != nil {
			if !p.Role.Valid() {
				return fmt.Errorf("%w: bilinmeyen rol %q", apperr.ErrInvalidInput, *p.Role)
			}
			u.Role = *p.Role
		}
		if p.IsActive != nil {
			if !*p.IsActive {
				if err := selfGuard(ctx, id); err != nil {
					return err
				}
			}
			u.IsActive = *p.IsActive
		}
		if p.OnShift != nil {
			u.OnShift = *p.OnShift
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		revoke = hash != "" || (before.IsActive && !u.IsActive) || before.Role != u.Role
		u.UpdatedAt = s.now()
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityUser,
			EntityID:    u.ID,
			Action:      models.AuditActionUpdate,
			Description: "Personel güncellendi: " + u.Name,
			Before:      before,
			After:       u,
		})
	})
	if err != nil {
		return models.User{}, apperr.Store("update staff", err)
	}
	if revoke {
		if err := s.sessions.RevokeUserSessions(ctx, u.ID); err != nil {
			return u, err
		}
	}
	s.changed(u)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := selfGuard(ctx, id); err != nil {
		return err
	}
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&u).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityUser,
			EntityID:    u.ID,
			Action:      models.AuditActionDelete,
			Description: "Personel silindi: " + u.Name,
			Before:      u,
		})
	})
	if err != nil {
		return apperr.Store("delete staff", err)
	}
	u.OnShift = false
	s.changed(u)
	return nil
}

func (s *Service) ToggleActive(ctx context.Context, id uint) (models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	active := !u.IsActive
	return s.Update(ctx, id, Patch{IsActive: &active})
}

// ToggleShift vardiyayı başlatır ya da bitirir, dashboard bunu vardiya
// bildirimine çevirir.
func (s *Service) ToggleShift(ctx context.Context, id uint) (models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	on := !u.OnShift
	return s.Update(ctx, id, Patch{OnShift: &on})
}

func (s *Service) ResetPassword(ctx context.Context, id uint, password string) error {
	if password == "" {
		return fmt.Errorf("%w: yeni şifre zorunlu", apperr.ErrInvalidInput)
	}
	_, err := s.Update(ctx, id, Patch{Password: &password})
	return err
}
