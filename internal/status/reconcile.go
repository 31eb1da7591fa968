package status

import (
	"time"
)

// TableStatusOnOrderPlaced sipariş verilen masanın aldığı durum.
const TableStatusOnOrderPlaced = TablePending

// TableStatusForOrder personelin verdiği sipariş durumundan masanın alacağı
// durumu çıkarır. ok false ise masaya dokunulmaz.
func TableStatusForOrder(s OrderStatus) (TableStatus, bool) {
	switch s {
	case OrderPending:
		return TablePending, true
	case OrderConfirmed, OrderPreparing:
		return TablePreparing, true
	case OrderReady, OrderServed, OrderDelivered:
		return TableDelivered, true
	}
	return "", false
}

// OrderStatusForTable ters yön: masa değişince güncel siparişe uygulanır.
// available için sonuç masanın tüm aktif siparişlerine uygulanır.
func OrderStatusForTable(s TableStatus) (OrderStatus, bool) {
	switch s {
	case TableOrdered:
		return OrderConfirmed, true
	case TablePreparing:
		return OrderPreparing, true
	case TableDelivered:
		return OrderDelivered, true
	case TableAvailable:
		return OrderCompleted, true
	}
	return "", false
}

// OrderSnapshot kuralların siparişten baktığı kısım.
type OrderSnapshot struct {
	ID        uint
	Status    OrderStatus
	CreatedAt time.Time
}

// SelectCurrentOrder en yeni aktif siparişin indeksini, yoksa -1 döner.
// Girdiyi değiştirmez.
func SelectCurrentOrder(orders []OrderSnapshot) int {
	best := -1
	for i, o := range orders {
		if !o.Status.IsActive() {
			continue
		}
		if best == -1 || Newer(o, orders[best]) {
			best = i
		}
	}
	return best
}

// Newer: yenilik sırasında a, b'den önce mi. Eşit zamanda büyük ID önde.
func Newer(a, b OrderSnapshot) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

type EmptyState string

const (
	EmptyNone           EmptyState = ""
	EmptyNoOrder        EmptyState = "no_order"
	EmptyOrderCompleted EmptyState = "order_completed"
)

// EmptyStateFor güncel sipariş yokken takip ekranının ne göstereceğine karar verir.
func EmptyStateFor(orders []OrderSnapshot) EmptyState {
	if SelectCurrentOrder(orders) >= 0 {
		return EmptyNone
	}
	latest := -1
	for i, o := range orders {
		if latest == -1 || Newer(o, orders[latest]) {
			latest = i
		}
	}
	if latest >= 0 {
		switch orders[latest].Status {
		case OrderDelivered, OrderServed:
			return EmptyOrderCompleted
		}
	}
	return EmptyNoOrder
}

type DisplayKey string

const (
	DisplayReceived  DisplayKey = "received"
	DisplayPreparing DisplayKey = "preparing"
	DisplayReady     DisplayKey = "ready"
	DisplayDelivered DisplayKey = "delivered"
	DisplayCancelled DisplayKey = "cancelled"
)

// Display müşterinin takip ekranındaki sipariş durumu.
type Display struct {
	Key        DisplayKey `json:"key"`
	Label      string     `json:"label"`
	Progress   int        `json:"progress"`
	Terminal   bool       `json:"terminal"`
	CanReorder bool       `json:"can_reorder"`
}

// DisplayFor yalnızca sipariş durumundan türetilir, bilinmeyen durum received.
func DisplayFor(s OrderStatus) Display {
	switch s {
	case OrderConfirmed, OrderPreparing:
		return Display{Key: DisplayPreparing, Label: "Hazırlanıyor", Progress: 50}
	case OrderReady:
		return Display{Key: DisplayReady, Label: "Hazır", Progress: 75}
	case OrderDelivered:
		return Display{Key: DisplayDelivered, Label: "Teslim Edildi", Progress: 100, Terminal: true, CanReorder: true}
	case OrderCancelled:
		return Display{Key: DisplayCancelled, Label: "İptal Edildi", Progress: 0}
	}
	return Display{Key: DisplayReceived, Label: "Sipariş Alındı", Progress: 25}
}

// ElapsedMinutes created ile now arasındaki tam dakika, negatif olmaz.
func ElapsedMinutes(created, now time.Time) int {
	if created.IsZero() || now.Before(created) {
		return 0
	}
	return int(now.Sub(created) / time.Minute)
}
