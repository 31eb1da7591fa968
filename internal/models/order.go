package models

import (
	"time"

	"kafe-backend/internal/status"
)

// Order.TableID bilerek foreign key değil: masa silinse de geçmiş siparişler kalır.
type Order struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	OrderNumber     string             `gorm:"size:40;index;not null" json:"order_number"`
	TableID         uint               `gorm:"index;not null" json:"table_id"`
	TableNumber     int                `json:"table_number"`
	Items           []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CustomerName    string             `gorm:"size:100" json:"customer_name,omitempty"`
	CustomerPhone   string             `gorm:"size:30" json:"customer_phone,omitempty"`
	SpecialRequests string             `gorm:"size:500" json:"special_requests,omitempty"`
	TotalAmount     float64            `gorm:"not null;default:0" json:"total_amount"`
	Status          status.OrderStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt       time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type OrderItem struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	OrderID             uint    `gorm:"index;not null" json:"order_id"`
	MenuItemID          uint    `gorm:"index" json:"menu_item_id"`
	Name                string  `gorm:"size:100;not null" json:"name"`
	Quantity            int     `gorm:"not null" json:"quantity"`
	UnitPrice           float64 `gorm:"not null" json:"unit_price"`
	SpecialInstructions string  `gorm:"size:255" json:"special_instructions,omitempty"`
}

func (i OrderItem) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

func (o Order) Snapshot() status.OrderSnapshot {
	return status.OrderSnapshot{ID: o.ID, Status: o.Status, CreatedAt: o.CreatedAt}
}

func (o Order) IsActive() bool {
	return o.Status.IsActive()
}

// Snapshots siparişleri durum kuralları için izdüşürür, indeksler korunur.
func Snapshots(orders []Order) []status.OrderSnapshot {
	out := make([]status.OrderSnapshot, len(orders))
	for i, o := range orders {
		out[i] = o.Snapshot()
	}
	return out
}
