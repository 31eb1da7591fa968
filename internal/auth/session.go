package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 6

// Session isteğin arkasındaki oturum açmış personel.
type Session struct {
	ID        string          `json:"id"`
	UserID    uint            `json:"user_id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

type Service struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		db:     db,
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("%w: şifre en az %d karakter olmalı", apperr.ErrInvalidInput, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// SignIn bilgileri kontrol eder, oturum açar ve token döner.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, apperr.Store("sign in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, apperr.ErrUserInactive
	}

	now := s.now()
	row := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", nil, apperr.Store("create session", err)
	}

	token, err := s.issue(&user, row)
	if err != nil {
		return "", nil, err
	}
	return token, sessionOf(&user, row), nil
}

// Authenticate token'ı açık bir oturuma çözer.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	var row models.Session
	err = s.db.WithContext(ctx).First(&row, "id = ?", claims.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrSessionClosed
	}
	if err != nil {
		return nil, apperr.Store("load session", err)
	}
	if !row.ActiveAt(s.now()) {
		return nil, apperr.ErrSessionClosed
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, row.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrSessionClosed
		}
		return nil, apperr.Store("load user", err)
	}
	if !user.IsActive {
		return nil, apperr.ErrUserInactive
	}
	return sessionOf(&user, row), nil
}

// SignOut oturumu kapatır, iki kez çıkış hata değil.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	now := s.now()
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", now).Error
	return apperr.Store("sign out", err)
}

// RevokeUserSessions kullanıcının tüm oturumlarını kapatır.
func (s *Service) RevokeUserSessions(ctx context.Context, userID uint) error {
	now := s.now()
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
	return apperr.Store("revoke sessions", err)
}

// RegisterFirstAdmin ilk yöneticiyi oluşturur, yönetici varsa reddeder.
func (s *Service) RegisterFirstAdmin(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: isim, email ve şifre zorunlu", apperr.ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: zaten bir yönetici var", apperr.ErrForbidden)
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return models.User{}, apperr.Store("register admin", err)
	}
	return user, nil
}

func sessionOf(u *models.User, row models.Session) *Session {
	return &Session{
		ID:        row.ID,
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		ExpiresAt: row.ExpiresAt,
	}
}
