// Package status masa ve sipariş yaşam döngülerini ve ikisini birbirine
// bağlayan kuralları tutar. Buradaki her şey saf: veritabanı yok, saat yok.
package status

import (
	"fmt"

	"kafe-backend/internal/apperr"
)

type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TablePending     TableStatus = "pending"
	TableOrdered     TableStatus = "ordered"
	TablePreparing   TableStatus = "preparing"
	TableDelivered   TableStatus = "delivered"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableCleaning    TableStatus = "cleaning"
	TableMaintenance TableStatus = "maintenance"
)

// TableStatuses tüm masa durumları, ekran sırasıyla.
var TableStatuses = []TableStatus{
	TableAvailable, TablePending, TableOrdered, TablePreparing, TableDelivered,
	TableOccupied, TableReserved, TableCleaning, TableMaintenance,
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderStatuses tüm sipariş durumları, yaşam döngüsü sırasıyla.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady,
	OrderDelivered, OrderServed, OrderCompleted, OrderCancelled,
}

func (s TableStatus) Valid() bool {
	for _, v := range TableStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Or boş durumu available sayar.
func (s TableStatus) Or() TableStatus {
	if s == "" {
		return TableAvailable
	}
	return s
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsActive siparişin hâlâ masanın canlı siparişi sayılıp sayılmadığını söyler.
// served masa açısından bitmiştir, yine de completed yapılabilir.
func (s OrderStatus) IsActive() bool {
	switch s {
	case OrderServed, OrderCompleted, OrderCancelled:
		return false
	}
	return true
}

// IsTerminal: yaşam döngüsü bitti mi.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// ParseTableStatus boş string'i available kabul eder.
func ParseTableStatus(s string) (TableStatus, error) {
	ts := TableStatus(s).Or()
	if !ts.Valid() {
		return "", fmt.Errorf("%w: unknown table status %q", apperr.ErrInvalidInput, s)
	}
	return ts, nil
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	os := OrderStatus(s)
	if !os.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", apperr.ErrInvalidInput, s)
	}
	return os, nil
}
