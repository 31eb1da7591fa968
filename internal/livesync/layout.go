package livesync

import (
	"context"
	"sync"

	"kafe-backend/internal/floorplan"
	"kafe-backend/internal/models"
	"kafe-backend/internal/status"
)

type TableMover interface {
	MoveTable(ctx context.Context, id uint, x, y float64) (models.Table, error)
}

type LayoutEntry struct {
	TableID  uint               `json:"table_id"`
	Number   int                `json:"number"`
	Capacity int                `json:"capacity"`
	Status   status.TableStatus `json:"status"`
	Position floorplan.Point    `json:"position"`
	State    FieldState         `json:"state"`
	Error    string             `json:"error,omitempty"`
}

// LayoutView sürükle bırak yerleşim planı. Taşıma hemen görünür, kayıt
// dönünce kesinleşir.
type LayoutView struct {
	tables TableLister
	mover  TableMover
	size   floorplan.Size

	mu     sync.Mutex
	fields map[uint]*Field[floorplan.Point]
}

func NewLayoutView(tables TableLister, mover TableMover, size floorplan.Size) *LayoutView {
	return &LayoutView{
		tables: tables,
		mover:  mover,
		size:   size,
		fields: make(map[uint]*Field[floorplan.Point]),
	}
}

func (v *LayoutView) field(id uint, initial floorplan.Point) *Field[floorplan.Point] {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.fields[id]
	if !ok {
		f = NewField(initial)
		v.fields[id] = f
	}
	return f
}

func (v *LayoutView) Load(ctx context.Context) ([]LayoutEntry, error) {
	tables, err := v.tables.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]LayoutEntry, 0, len(tables))
	for i, t := range tables {
		stored := v.size.Resolve(i, t.PositionX, t.PositionY)
		f := v.field(t.ID, stored)
		f.Observe(stored)

		state, ferr := f.State()
		e := LayoutEntry{
			TableID:  t.ID,
			Number:   t.Number,
			Capacity: t.Capacity,
			Status:   t.CurrentStatus(),
			Position: f.Value(),
			State:    state,
		}
		if ferr != nil {
			e.Error = ferr.Error()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Move sınırlanmış konumu hemen gösterir ve kaydeder.
func (v *LayoutView) Move(ctx context.Context, id uint, x, y float64) error {
	target := v.size.Clamp(x, y)
	f := v.field(id, target)
	f.Set(target)

	t, err := v.mover.MoveTable(ctx, id, x, y)
	if err != nil {
		f.Rollback(err)
		return err
	}
	f.Commit(floorplan.Point{X: t.PositionX, Y: t.PositionY})
	return nil
}

// Position görünümün masa için şu an gösterdiği konum.
func (v *LayoutView) Position(id uint) (floorplan.Point, FieldState, bool) {
	v.mu.Lock()
	f, ok := v.fields[id]
	v.mu.Unlock()
	if !ok {
		return floorplan.Point{}, "", false
	}
	state, _ := f.State()
	return f.Value(), state, true
}
