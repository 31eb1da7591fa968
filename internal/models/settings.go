package models

import "time"

// Setting anahtar başına bir JSON belge ("cafe", "theme").
type Setting struct {
	Key       string    `gorm:"primaryKey;size:50" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationBaseline bir dashboard izleyicisinin o gün gördüğü sipariş ID'leri.
type NotificationBaseline struct {
	ID        uint      `gorm:"primaryKey"`
	Viewer    string    `gorm:"size:100;uniqueIndex;not null"`
	Day       string    `gorm:"size:10;not null"` // 2006-01-02
	OrderIDs  []uint    `gorm:"serializer:json;type:text"`
	UpdatedAt time.Time
}
