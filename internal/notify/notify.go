// Package notify personel dashboard bildirimlerini üretir, aynı anahtarlı
// bildirim ekrandayken tekrarını bastırır.
package notify

import (
	"fmt"
	"sync"
	"time"

	"kafe-backend/internal/status"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Notification struct {
	Key         string    `json:"key"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Details     string    `json:"details"`
	AutoCloseMs int       `json:"auto_close_ms"`
	Sound       bool      `json:"sound"`
	At          time.Time `json:"at"`
}

const (
	newOrderAutoClose    = 8000
	orderStatusAutoClose = 4000
	tableStatusAutoClose = 3000
	shiftAutoClose       = 4000
)

var orderStatusTexts = map[status.OrderStatus]string{
	status.OrderPending:   "⏳ Beklemede",
	status.OrderConfirmed: "✅ Sipariş Onaylandı",
	status.OrderPreparing: "👨‍🍳 Hazırlanıyor",
	status.OrderReady:     "🔔 Hazır",
	status.OrderDelivered: "✅ Teslim Edildi",
	status.OrderServed:    "🍽️ Servis Edildi",
	status.OrderCompleted: "✅ Tamamlandı",
	status.OrderCancelled: "❌ İptal Edildi",
}

var tableStatusTexts = map[status.TableStatus]string{
	status.TableAvailable:   "🟢 Boş",
	status.TablePending:     "🟡 Sipariş Alındı",
	status.TableOrdered:     "🟡 Sipariş Alındı",
	status.TablePreparing:   "🟠 Hazırlanıyor",
	status.TableDelivered:   "🟢 Teslim Edildi",
	status.TableOccupied:    "🔵 Dolu",
	status.TableReserved:    "🟣 Rezerve",
	status.TableCleaning:    "🧹 Temizleniyor",
	status.TableMaintenance: "🔧 Bakımda",
}

// Formatter bildirim metinlerini kafenin saat diliminde Türkçe yazar.
type Formatter struct {
	p   *message.Printer
	loc *time.Location
}

func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{p: message.NewPrinter(language.Turkish), loc: loc}
}

// Money tutarı Türkçe biçimde yazar, örn. 1.250,5 ₺.
func (f *Formatter) Money(amount float64) string {
	return f.p.Sprintf("%v ₺", number.Decimal(amount, number.MaxFractionDigits(2)))
}

func (f *Formatter) clock(at time.Time) string {
	return at.In(f.loc).Format("15:04")
}

func (f *Formatter) NewOrder(tableNumber int, orderNumber string, quantity int, total float64, at time.Time) Notification {
	details := f.p.Sprintf("Masa %d • Sipariş #%s\n%d adet ürün • ", tableNumber, orderNumber, quantity)
	if total > 0 {
		details += f.Money(total) + " • "
	}
	details += f.clock(at)

	return Notification{
		Key:         "dashboard-order-" + orderNumber,
		Severity:    SeveritySuccess,
		Title:       "🍽️ Yeni Sipariş Alındı!",
		Details:     details,
		AutoCloseMs: newOrderAutoClose,
		Sound:       true,
		At:          at,
	}
}

func (f *Formatter) OrderStatus(tableNumber int, orderNumber string, s status.OrderStatus, at time.Time) Notification {
	title, ok := orderStatusTexts[s]
	if !ok {
		title = string(s)
	}

	details := fmt.Sprintf("Masa %d • Sipariş #%s • %s", tableNumber, orderNumber, f.clock(at))
	if s == status.OrderCompleted {
		details = fmt.Sprintf("Masa %d • %s", tableNumber, f.clock(at))
	}

	severity := SeverityInfo
	switch s {
	case status.OrderReady, status.OrderDelivered, status.OrderServed, status.OrderCompleted:
		severity = SeveritySuccess
	case status.OrderCancelled:
		severity = SeverityError
	case status.OrderPreparing:
		severity = SeverityWarning
	}

	return Notification{
		Key:         fmt.Sprintf("dashboard-status-%s-%s", orderNumber, s),
		Severity:    severity,
		Title:       title,
		Details:     details,
		AutoCloseMs: orderStatusAutoClose,
		Sound:       s != status.OrderPending,
		At:          at,
	}
}

func (f *Formatter) TableStatus(tableNumber int, from, to status.TableStatus, at time.Time) Notification {
	return Notification{
		Key:         fmt.Sprintf("dashboard-table-%d-%s", tableNumber, to),
		Severity:    SeverityInfo,
		Title:       fmt.Sprintf("Masa %d durumu değişti", tableNumber),
		Details:     fmt.Sprintf("%s → %s\n%s", tableText(from), tableText(to), f.clock(at)),
		AutoCloseMs: tableStatusAutoClose,
		Sound:       true,
		At:          at,
	}
}

func tableText(s status.TableStatus) string {
	if t, ok := tableStatusTexts[s]; ok {
		return t
	}
	return string(s)
}

func (f *Formatter) Shift(userName string, started bool, at time.Time) Notification {
	action, title, severity := "shift_end", "🔴 Vardiya Bitti", SeverityInfo
	if started {
		action, title, severity = "shift_start", "🟢 Vardiya Başladı", SeveritySuccess
	}
	return Notification{
		Key:         fmt.Sprintf("dashboard-shift-%s-%s", userName, action),
		Severity:    severity,
		Title:       title,
		Details:     fmt.Sprintf("%s • %s", userName, f.clock(at)),
		AutoCloseMs: shiftAutoClose,
		Sound:       true,
		At:          at,
	}
}

// Center anahtarı daha önce kabul edilmiş ve otomatik kapanma süresi
// dolmamış bildirimi düşürür.
type Center struct {
	mu   sync.Mutex
	open map[string]time.Time // key -> kapanış zamanı
}

func NewCenter() *Center {
	return &Center{open: make(map[string]time.Time)}
}

func (c *Center) Admit(n Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, until := range c.open {
		if !n.At.Before(until) {
			delete(c.open, k)
		}
	}
	if _, shown := c.open[n.Key]; shown {
		return false
	}
	c.open[n.Key] = n.At.Add(time.Duration(n.AutoCloseMs) * time.Millisecond)
	return true
}

// Filter kabul edilenleri sırasıyla döner.
func (c *Center) Filter(ns []Notification) []Notification {
	out := ns[:0:0]
	for _, n := range ns {
		if c.Admit(n) {
			out = append(out, n)
		}
	}
	return out
}
