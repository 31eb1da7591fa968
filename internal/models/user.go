package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:30" json:"phone"`
	Position     string    `gorm:"size:50" json:"position"` // barista, garson ...
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	OnShift      bool      `gorm:"not null" json:"on_shift"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session bir oturum açma. Token onun ID'sini taşır, satır kapatılınca
// token süresi dolmadan geçersiz olur.
type Session struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func (s Session) ActiveAt(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
