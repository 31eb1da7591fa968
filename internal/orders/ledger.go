// Package orders sipariş defteri: sipariş alma, durum ilerletme ve masa
// durumunu siparişle uyumlu tutma.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/audit"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"
	"kafe-backend/internal/status"
	"kafe-backend/internal/tables"

	"gorm.io/gorm"
)

// TodayLimit dashboard sipariş akışının üst sınırı.
const TodayLimit = 100

type Ledger struct {
	db  *gorm.DB
	bus *livesync.Bus
	now func() time.Time
	loc *time.Location
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation "bugün" hesabı için kafenin saat dilimi.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) { l.loc = loc }
}

func NewLedger(db *gorm.DB, bus *livesync.Bus, opts ...Option) *Ledger {
	l := &Ledger{
		db:  db,
		bus: bus,
		now: func() time.Time { return time.Now().UTC() },
		loc: time.UTC,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

type ItemInput struct {
	MenuItemID          uint
	Name                string
	Quantity            int
	UnitPrice           float64
	SpecialInstructions string
}

type Customer struct {
	Name  string
	Phone string
}

type PlaceOrderInput struct {
	TableID         uint
	Items           []ItemInput
	Customer        Customer
	SpecialRequests string
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return apperr.ErrEmptyCart
	}
	for i, it := range items {
		switch {
		case it.Quantity < 1:
			return fmt.Errorf("%w: kalem %d adet %d", apperr.ErrInvalidItem, i+1, it.Quantity)
		case it.UnitPrice < 0:
			return fmt.Errorf("%w: kalem %d fiyat negatif", apperr.ErrInvalidItem, i+1)
		case strings.TrimSpace(it.Name) == "":
			return fmt.Errorf("%w: kalem %d isimsiz", apperr.ErrInvalidItem, i+1)
		}
	}
	return nil
}

// OrderNumber t anında verilen siparişin okunabilir numarası.
func OrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%d", t.UnixMilli())
}

// PlaceOrder müşteri siparişini pending olarak kaydeder ve masayı tek
// transaction içinde pending yapar.
func (l *Ledger) PlaceOrder(ctx context.Context, in PlaceOrderInput) (models.Order, error) {
	if err := validateItems(in.Items); err != nil {
		return models.Order{}, err
	}

	now := l.now()
	order := models.Order{
		OrderNumber:     OrderNumber(now),
		TableID:         in.TableID,
		CustomerName:    strings.TrimSpace(in.Customer.Name),
		CustomerPhone:   strings.TrimSpace(in.Customer.Phone),
		SpecialRequests: strings.TrimSpace(in.SpecialRequests),
		Status:          status.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range in.Items {
		item := models.OrderItem{
			MenuItemID:          it.MenuItemID,
			Name:                strings.TrimSpace(it.Name),
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice,
			SpecialInstructions: it.SpecialInstructions,
		}
		order.TotalAmount += item.LineTotal()
		order.Items = append(order.Items, item)
	}

	var (
		table        models.Table
		tableChanged bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if table, err = tables.Load(tx, in.TableID); err != nil {
			return err
		}
		order.TableNumber = table.Number
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if tableChanged, err = tables.Transition(tx, &table, status.TableStatusOnOrderPlaced, now); err != nil {
			return err
		}
		err = tx.Model(&models.Table{}).Where("id = ?", table.ID).Updates(map[string]any{
			"last_order_id":     order.ID,
			"last_order_number": order.OrderNumber,
			"updated_at":        now,
		}).Error
		if err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityOrder,
			EntityID:    order.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Masa %d: %s (%.2f ₺)", table.Number, order.OrderNumber, order.TotalAmount),
			After:       order,
		})
	})
	if err != nil {
		return models.Order{}, apperr.Store("place order", err)
	}

	items := make([]livesync.SignalItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, livesync.SignalItem{Name: it.Name, Quantity: it.Quantity})
	}
	l.bus.Publish(livesync.Signal{
		Kind:        livesync.KindOrderCreated,
		Topic:       livesync.TopicOrders,
		TableID:     table.ID,
		TableNumber: table.Number,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Items:       items,
		At:          now,
	})
	l.bus.Publish(livesync.Signal{
		Kind:        livesync.KindOrderStatusUpdated,
		Topic:       livesync.TopicOrders,
		TableID:     table.ID,
		TableNumber: table.Number,
		OrderID:     order.ID,
		Status:      string(order.Status),
		NewOrder:    true,
		At:          now,
	})
	if tableChanged {
		l.bus.Publish(tables.StatusSignal(table))
	}
	return order, nil
}

func loadOrder(tx *gorm.DB, id uint) (models.Order, error) {
	var o models.Order
	if err := tx.Preload("Items").First(&o, id).Error; err != nil {
		return models.Order{}, apperr.Store("load order", err)
	}
	return o, nil
}

// setOrderStatus sipariş makinesi kontrolünden sonra o'ya to yazar.
// Bir şey yazıldıysa true.
func setOrderStatus(ctx context.Context, tx *gorm.DB, o *models.Order, to status.OrderStatus, now time.Time) (bool, error) {
	if err := status.CheckOrderTransition(o.Status, to); err != nil {
		return false, fmt.Errorf("%s: %w", o.OrderNumber, err)
	}
	if o.Status == to {
		return false, nil
	}
	before := o.Status
	err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
		Updates(map[string]any{"status": to, "updated_at": now}).Error
	if err != nil {
		return false, err
	}
	o.Status, o.UpdatedAt = to, now
	return true, audit.Write(ctx, tx, audit.Entry{
		EntityType:  audit.EntityOrder,
		EntityID:    o.ID,
		Action:      models.AuditActionStatus,
		Description: fmt.Sprintf("%s: %s → %s", o.OrderNumber, before, to),
		Before:      map[string]any{"status": before},
		After:       map[string]any{"status": to},
	})
}

func (l *Ledger) orderSignal(o models.Order) livesync.Signal {
	return livesync.Signal{
		Kind:        livesync.KindOrderStatusUpdated,
		Topic:       livesync.TopicOrders,
		TableID:     o.TableID,
		TableNumber: o.TableNumber,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		At:          o.UpdatedAt,
	}
}

// AdvanceOrderStatus siparişi ilerletir ve masasının durumunu aynı
// transaction içinde siparişten türetir. Sipariş geçişi yasak değilse masa
// hangi durumda olursa olsun siparişi izler.
func (l *Ledger) AdvanceOrderStatus(ctx context.Context, orderID uint, to status.OrderStatus) (models.Order, error) {
	var (
		order        models.Order
		table        models.Table
		orderChanged bool
		tableChanged bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = loadOrder(tx, orderID); err != nil {
			return err
		}
		now := l.now()
		if orderChanged, err = setOrderStatus(ctx, tx, &order, to, now); err != nil || !orderChanged {
			return err
		}

		derived, ok := status.TableStatusForOrder(to)
		if !ok {
			return nil
		}
		table, err = tables.Load(tx, order.TableID)
		if err != nil {
			// masa silinmiş olabilir, sipariş yine de ilerler
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			return err
		}
		tableChanged, err = tables.Derive(tx, &table, derived, now)
		return err
	})
	if err != nil {
		return models.Order{}, apperr.Store("advance order", err)
	}
	if orderChanged {
		l.bus.Publish(l.orderSignal(order))
	}
	if tableChanged {
		l.bus.Publish(tables.StatusSignal(table))
	}
	return order, nil
}

type Failure struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Error       string `json:"error"`
}

type CompletionResult struct {
	Completed []uint    `json:"completed"`
	Failed    []Failure `json:"failed"`
}

// CompleteAllActiveOrders masanın completed ya da cancelled olmayan tüm
// siparişlerini tamamlar. Her sipariş ayrı yazılır, hatalar raporlanır ve
// diğerlerini geri almaz.
func (l *Ledger) CompleteAllActiveOrders(ctx context.Context, tableID uint) (CompletionResult, error) {
	var pending []models.Order
	err := l.db.WithContext(ctx).
		Where("table_id = ? AND status NOT IN ?", tableID, []status.OrderStatus{status.OrderCompleted, status.OrderCancelled}).
		Order("created_at ASC, id ASC").
		Find(&pending).Error
	if err != nil {
		return CompletionResult{}, apperr.Store("list open orders", err)
	}

	res := CompletionResult{Completed: []uint{}, Failed: []Failure{}}
	for _, o := range pending {
		var changed bool
		err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// başka bir personel bu arada değiştirmiş olabilir
			fresh, err := loadOrder(tx, o.ID)
			if err != nil {
				return err
			}
			o = fresh
			changed, err = setOrderStatus(ctx, tx, &o, status.OrderCompleted, l.now())
			return err
		})
		if err != nil {
			res.Failed = append(res.Failed, Failure{OrderID: o.ID, OrderNumber: o.OrderNumber, Error: err.Error()})
			continue
		}
		res.Completed = append(res.Completed, o.ID)
		if changed {
			l.bus.Publish(l.orderSignal(o))
		}
	}
	return res, nil
}

type ClearResult struct {
	Table models.Table `json:"table"`
	CompletionResult
}

// ClearTable açık siparişleri tamamlar ve masayı boşaltır.
func (l *Ledger) ClearTable(ctx context.Context, tableID uint) (ClearResult, error) {
	var table models.Table
	if err := l.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		return ClearResult{}, apperr.Store("get table", err)
	}

	completion, err := l.CompleteAllActiveOrders(ctx, tableID)
	if err != nil {
		return ClearResult{}, err
	}

	var changed bool
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if table, err = tables.Load(tx, tableID); err != nil {
			return err
		}
		before := table
		if changed, err = tables.Transition(tx, &table, status.TableAvailable, l.now()); err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityTable,
			EntityID:    table.ID,
			Action:      models.AuditActionClear,
			Description: fmt.Sprintf("Masa %d temizlendi, %d sipariş tamamlandı", table.Number, len(completion.Completed)),
			Before:      map[string]any{"status": before.Status},
			After:       map[string]any{"status": table.Status, "completed": completion.Completed},
		})
	})
	if err != nil {
		return ClearResult{}, apperr.Store("clear table", err)
	}
	if changed {
		l.bus.Publish(tables.StatusSignal(table))
	}
	return ClearResult{Table: table, CompletionResult: completion}, nil
}

// AdvanceTableStatus personelin masa işlemi. Masayla birlikte güncel siparişi
// de ilerletir (status.OrderStatusForTable), available masayı temizler.
func (l *Ledger) AdvanceTableStatus(ctx context.Context, tableID uint, to status.TableStatus) (models.Table, error) {
	if to == status.TableAvailable {
		res, err := l.ClearTable(ctx, tableID)
		return res.Table, err
	}

	var (
		table        models.Table
		current      *models.Order
		tableChanged bool
		orderChanged bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if table, err = tables.Load(tx, tableID); err != nil {
			return err
		}
		before := table
		now := l.now()
		if tableChanged, err = tables.Transition(tx, &table, to, now); err != nil {
			return err
		}

		if orderTo, ok := status.OrderStatusForTable(to); ok {
			var list []models.Order
			if err := tx.Where("table_id = ?", tableID).Find(&list).Error; err != nil {
				return err
			}
			if idx := status.SelectCurrentOrder(models.Snapshots(list)); idx >= 0 {
				o := list[idx]
				if orderChanged, err = setOrderStatus(ctx, tx, &o, orderTo, now); err != nil {
					return err
				}
				current = &o
			}
		}
		if !tableChanged {
			return nil
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityTable,
			EntityID:    table.ID,
			Action:      models.AuditActionStatus,
			Description: fmt.Sprintf("Masa %d: %s → %s", table.Number, before.Status, table.Status),
			Before:      map[string]any{"status": before.Status},
			After:       map[string]any{"status": table.Status},
		})
	})
	if err != nil {
		return models.Table{}, apperr.Store("advance table", err)
	}
	if tableChanged {
		l.bus.Publish(tables.StatusSignal(table))
	}
	if orderChanged && current != nil {
		l.bus.Publish(l.orderSignal(*current))
	}
	return table, nil
}

func (l *Ledger) Get(ctx context.Context, id uint) (models.Order, error) {
	return loadOrder(l.db.WithContext(ctx), id)
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Preload("Items").Order("created_at DESC, id DESC")
}

// ListOrdersForTable masanın tüm siparişleri, en yeni önce.
func (l *Ledger) ListOrdersForTable(ctx context.Context, tableID uint) ([]models.Order, error) {
	var list []models.Order
	err := newestFirst(l.db.WithContext(ctx)).Where("table_id = ?", tableID).Find(&list).Error
	return list, apperr.Store("list table orders", err)
}

func (l *Ledger) WatchOrdersForTable(ctx context.Context, tableID uint) <-chan livesync.Update[[]models.Order] {
	load := func(ctx context.Context) ([]models.Order, error) {
		return l.ListOrdersForTable(ctx, tableID)
	}
	return livesync.Watch(ctx, l.bus, load, livesync.TopicOrders)
}

// StartOfDay now'ın kafe saatine göre gece yarısı, UTC olarak.
func (l *Ledger) StartOfDay(now time.Time) time.Time {
	local := now.In(l.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, l.loc).UTC()
}

// ListTodayOrders yerel gece yarısından beri verilen en fazla TodayLimit
// sipariş, en yeni önce.
func (l *Ledger) ListTodayOrders(ctx context.Context, now time.Time) ([]models.Order, error) {
	var list []models.Order
	err := newestFirst(l.db.WithContext(ctx)).
		Where("created_at >= ?", l.StartOfDay(now)).
		Limit(TodayLimit).
		Find(&list).Error
	return list, apperr.Store("list today orders", err)
}

func activeStatuses() []status.OrderStatus {
	var out []status.OrderStatus
	for _, s := range status.OrderStatuses {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

func (l *Ledger) ListActiveOrders(ctx context.Context) ([]models.Order, error) {
	var list []models.Order
	err := newestFirst(l.db.WithContext(ctx)).Where("status IN ?", activeStatuses()).Find(&list).Error
	return list, apperr.Store("list active orders", err)
}
