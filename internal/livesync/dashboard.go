package livesync

import (
	"context"
	"time"

	"kafe-backend/internal/models"
	"kafe-backend/internal/notify"
	"kafe-backend/internal/status"
)

type TodayOrderLister interface {
	ListTodayOrders(ctx context.Context, now time.Time) ([]models.Order, error)
}

type StaffLister interface {
	ListStaff(ctx context.Context) ([]models.User, error)
}

type TableCard struct {
	Table          models.Table    `json:"table"`
	CurrentOrder   *models.Order   `json:"current_order"`
	Display        *status.Display `json:"display,omitempty"`
	ElapsedMinutes int             `json:"elapsed_minutes"`
	ActiveOrders   int             `json:"active_orders"`
}

type DashboardSummary struct {
	Tables       int     `json:"tables"`
	BusyTables   int     `json:"busy_tables"`
	ActiveOrders int     `json:"active_orders"`
	TodayOrders  int     `json:"today_orders"`
	TodayRevenue float64 `json:"today_revenue"`
}

type Dashboard struct {
	Tables        []TableCard           `json:"tables"`
	ActiveOrders  []models.Order        `json:"active_orders"`
	Summary       DashboardSummary      `json:"summary"`
	Notifications []notify.Notification `json:"notifications"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// BuildDashboard personel dashboard'unu masalardan ve bugünün siparişlerinden
// çıkarır. İptal edilen siparişler ciroya girmez.
func BuildDashboard(tables []models.Table, todayOrders []models.Order, now time.Time) Dashboard {
	d := Dashboard{
		Tables:        make([]TableCard, 0, len(tables)),
		ActiveOrders:  []models.Order{},
		Notifications: []notify.Notification{},
		GeneratedAt:   now,
	}

	for _, o := range todayOrders {
		if o.IsActive() {
			d.ActiveOrders = append(d.ActiveOrders, o)
		}
		if o.Status != status.OrderCancelled {
			d.Summary.TodayRevenue += o.TotalAmount
		}
	}
	d.Summary.TodayOrders = len(todayOrders)
	d.Summary.ActiveOrders = len(d.ActiveOrders)
	d.Summary.Tables = len(tables)

	byTable := groupByTable(todayOrders)
	for _, t := range tables {
		t.Status = t.CurrentStatus()
		card := TableCard{Table: t}
		cur, active := currentOrder(byTable[t.ID])
		card.ActiveOrders = active
		if cur != nil {
			disp := status.DisplayFor(cur.Status)
			card.CurrentOrder = cur
			card.Display = &disp
			card.ElapsedMinutes = status.ElapsedMinutes(cur.CreatedAt, now)
		}
		if t.Status != status.TableAvailable && t.Status != status.TableMaintenance {
			d.Summary.BusyTables++
		}
		d.Tables = append(d.Tables, card)
	}
	return d
}

// DashboardFeed dashboard'un izleyici başına durum tutan tarafı: her
// teslimatı öncekiyle karşılaştırıp bildirim üretir. Load eşzamanlı
// çağrılmamalı, Watch tek goroutine'den çağırır.
type DashboardFeed struct {
	tables   TableLister
	orders   TodayOrderLister
	staff    StaffLister // nil: vardiya bildirimi yok
	baseline *Baseline
	format   *notify.Formatter
	center   *notify.Center
	now      func() time.Time

	primed      bool
	lastOrders  map[uint]status.OrderStatus
	lastTables  map[uint]status.TableStatus
	lastOnShift map[uint]bool
}

func NewDashboardFeed(tables TableLister, orders TodayOrderLister, staff StaffLister, baseline *Baseline, format *notify.Formatter, now func() time.Time) *DashboardFeed {
	return &DashboardFeed{
		tables:   tables,
		orders:   orders,
		staff:    staff,
		baseline: baseline,
		format:   format,
		center:   notify.NewCenter(),
		now:      now,
	}
}

func (f *DashboardFeed) Load(ctx context.Context) (Dashboard, error) {
	now := f.now()

	tables, err := f.tables.ListTables(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	orders, err := f.orders.ListTodayOrders(ctx, now)
	if err != nil {
		return Dashboard{}, err
	}
	var staff []models.User
	if f.staff != nil {
		if staff, err = f.staff.ListStaff(ctx); err != nil {
			return Dashboard{}, err
		}
	}

	d := BuildDashboard(tables, orders, now)

	fresh, err := f.baseline.Observe(ctx, orders, now)
	if err != nil {
		return Dashboard{}, err
	}

	var ns []notify.Notification
	for _, o := range fresh {
		qty := 0
		for _, it := range o.Items {
			qty += it.Quantity
		}
		ns = append(ns, f.format.NewOrder(o.TableNumber, o.OrderNumber, qty, o.TotalAmount, now))
	}
	if f.primed {
		ns = append(ns, f.diff(orders, tables, staff, now)...)
	}
	d.Notifications = append(d.Notifications, f.center.Filter(ns)...)

	f.remember(orders, tables, staff)
	return d, nil
}

func (f *DashboardFeed) diff(orders []models.Order, tables []models.Table, staff []models.User, now time.Time) []notify.Notification {
	var ns []notify.Notification
	for _, o := range orders {
		prev, ok := f.lastOrders[o.ID]
		if ok && prev != o.Status {
			ns = append(ns, f.format.OrderStatus(o.TableNumber, o.OrderNumber, o.Status, now))
		}
	}
	for _, t := range tables {
		cur := t.CurrentStatus()
		prev, ok := f.lastTables[t.ID]
		if ok && prev != cur {
			ns = append(ns, f.format.TableStatus(t.Number, prev, cur, now))
		}
	}
	for _, u := range staff {
		prev, ok := f.lastOnShift[u.ID]
		if ok && prev != u.OnShift {
			ns = append(ns, f.format.Shift(u.Name, u.OnShift, now))
		}
	}
	return ns
}

func (f *DashboardFeed) remember(orders []models.Order, tables []models.Table, staff []models.User) {
	f.lastOrders = make(map[uint]status.OrderStatus, len(orders))
	for _, o := range orders {
		f.lastOrders[o.ID] = o.Status
	}
	f.lastTables = make(map[uint]status.TableStatus, len(tables))
	for _, t := range tables {
		f.lastTables[t.ID] = t.CurrentStatus()
	}
	f.lastOnShift = make(map[uint]bool, len(staff))
	for _, u := range staff {
		f.lastOnShift[u.ID] = u.OnShift
	}
	f.primed = true
}

// DashboardTopics dashboard'un izlediği konular.
var DashboardTopics = []Topic{TopicTables, TopicOrders, TopicStaff}
