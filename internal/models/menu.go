package models

import "time"

type MenuItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Description     string    `gorm:"size:500" json:"description"`
	Price           float64   `gorm:"not null" json:"price"`
	Category        string    `gorm:"size:100;index" json:"category"`
	Image           string    `gorm:"size:255" json:"image"`
	Ingredients     []string  `gorm:"serializer:json;type:text" json:"ingredients"`
	Tags            []string  `gorm:"serializer:json;type:text" json:"tags"`
	PreparationTime int       `json:"preparation_time"` // dakika
	IsAvailable     bool      `gorm:"not null" json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;unique" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Image       string    `gorm:"size:255" json:"image"`
	Color       string    `gorm:"size:20" json:"color"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
