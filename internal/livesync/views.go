package livesync

import (
	"context"
	"time"

	"kafe-backend/internal/models"
	"kafe-backend/internal/status"
)

type TableLister interface {
	ListTables(ctx context.Context) ([]models.Table, error)
}

type TableGetter interface {
	Get(ctx context.Context, id uint) (models.Table, error)
}

type TableOrderLister interface {
	ListOrdersForTable(ctx context.Context, tableID uint) ([]models.Order, error)
}

type ActiveOrderLister interface {
	ListActiveOrders(ctx context.Context) ([]models.Order, error)
}

// currentOrder birden çok masaya ait olabilecek orders içinden masanın
// güncel siparişini seçer.
func currentOrder(orders []models.Order) (*models.Order, int) {
	idx := status.SelectCurrentOrder(models.Snapshots(orders))
	active := 0
	for _, o := range orders {
		if o.IsActive() {
			active++
		}
	}
	if idx < 0 {
		return nil, active
	}
	o := orders[idx]
	return &o, active
}

func groupByTable(orders []models.Order) map[uint][]models.Order {
	out := make(map[uint][]models.Order)
	for _, o := range orders {
		out[o.TableID] = append(out[o.TableID], o)
	}
	return out
}

// OrderTracker bir masanın müşteri sipariş takip sayfası.
type OrderTracker struct {
	TableID        uint              `json:"table_id"`
	TableNumber    int               `json:"table_number"`
	CurrentOrder   *models.Order     `json:"current_order"`
	Display        *status.Display   `json:"display,omitempty"`
	ElapsedMinutes int               `json:"elapsed_minutes"`
	EmptyState     status.EmptyState `json:"empty_state,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

func BuildOrderTracker(table models.Table, orders []models.Order, now time.Time) OrderTracker {
	v := OrderTracker{TableID: table.ID, TableNumber: table.Number, GeneratedAt: now}

	cur, _ := currentOrder(orders)
	if cur == nil {
		v.EmptyState = status.EmptyStateFor(models.Snapshots(orders))
		return v
	}
	d := status.DisplayFor(cur.Status)
	v.CurrentOrder = cur
	v.Display = &d
	v.ElapsedMinutes = status.ElapsedMinutes(cur.CreatedAt, now)
	return v
}

func OrderTrackerLoader(tables TableGetter, orders TableOrderLister, tableID uint, now func() time.Time) Loader[OrderTracker] {
	return func(ctx context.Context) (OrderTracker, error) {
		table, err := tables.Get(ctx, tableID)
		if err != nil {
			return OrderTracker{}, err
		}
		list, err := orders.ListOrdersForTable(ctx, tableID)
		if err != nil {
			return OrderTracker{}, err
		}
		return BuildOrderTracker(table, list, now()), nil
	}
}

// TableRow yönetici masa listesinin bir satırı.
type TableRow struct {
	models.Table
	ActiveOrders       int    `json:"active_orders"`
	CurrentOrderNumber string `json:"current_order_number,omitempty"`
}

func BuildTablesView(tables []models.Table, activeOrders []models.Order) []TableRow {
	byTable := groupByTable(activeOrders)
	rows := make([]TableRow, 0, len(tables))
	for _, t := range tables {
		t.Status = t.CurrentStatus()
		row := TableRow{Table: t}
		cur, active := currentOrder(byTable[t.ID])
		row.ActiveOrders = active
		if cur != nil {
			row.CurrentOrderNumber = cur.OrderNumber
		}
		rows = append(rows, row)
	}
	return rows
}

func TablesViewLoader(tables TableLister, orders ActiveOrderLister) Loader[[]TableRow] {
	return func(ctx context.Context) ([]TableRow, error) {
		list, err := tables.ListTables(ctx)
		if err != nil {
			return nil, err
		}
		active, err := orders.ListActiveOrders(ctx)
		if err != nil {
			return nil, err
		}
		return BuildTablesView(list, active), nil
	}
}
