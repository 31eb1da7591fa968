package models

import (
	"time"

	"kafe-backend/internal/status"
)

type Table struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	Number          int                `gorm:"uniqueIndex;not null" json:"number"`
	Capacity        int                `gorm:"not null" json:"capacity"`
	Status          status.TableStatus `gorm:"size:20;not null;default:'available'" json:"status"`
	PositionX       int                `json:"position_x"`
	PositionY       int                `json:"position_y"`
	Description     string             `gorm:"size:255" json:"description"`
	LastOrderID     *uint              `json:"last_order_id"`     // denormalize, yetkili kaynak değil
	LastOrderNumber string             `gorm:"size:40" json:"last_order_number"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// CurrentStatus kayıtlı durumu döner, boşsa available.
func (t Table) CurrentStatus() status.TableStatus {
	return t.Status.Or()
}
