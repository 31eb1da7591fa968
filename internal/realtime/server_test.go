package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kafe-backend/internal/auth"
	"kafe-backend/internal/floorplan"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"
	"kafe-backend/internal/orders"
	"kafe-backend/internal/staff"
	"kafe-backend/internal/status"
	"kafe-backend/internal/tables"
	"kafe-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "0123456789abcdef0123456789abcdef"

var layout = floorplan.Size{Width: 960, Height: 640}

type fixture struct {
	db     *gorm.DB
	auth   *auth.Service
	tables *tables.Registry
	ledger *orders.Ledger
	srv    *Server
	http   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	bus := livesync.NewBus()
	authSvc := auth.NewService(db, secret, time.Hour)

	f := &fixture{
		db:     db,
		auth:   authSvc,
		tables: tables.NewRegistry(db, bus, layout),
		ledger: orders.NewLedger(db, bus),
	}
	f.srv = New(Deps{
		Auth:      authSvc,
		Tables:    f.tables,
		Orders:    f.ledger,
		Staff:     staff.NewService(db, bus, authSvc),
		Bus:       bus,
		Baselines: livesync.NewGormBaselineStore(db),
		Layout:    layout,
	})
	f.http = httptest.NewServer(f.srv.Handler())
	t.Cleanup(f.http.Close)
	return f
}

func (f *fixture) table(t *testing.T, number int) models.Table {
	t.Helper()
	tbl, err := f.tables.CreateTable(context.Background(), tables.NewTable{Number: number, Capacity: 4})
	require.NoError(t, err)
	return tbl
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	hash, err := auth.HashPassword("gizli123")
	require.NoError(t, err)
	u := models.User{Name: "Ayşe", Email: "ayse@kafe.test", PasswordHash: hash, Role: models.RoleStaff, IsActive: true}
	require.NoError(t, f.db.Create(&u).Error)

	token, _, err := f.auth.SignIn(context.Background(), u.Email, "gizli123")
	require.NoError(t, err)
	return token
}

func (f *fixture) place(t *testing.T, tableID uint) models.Order {
	t.Helper()
	o, err := f.ledger.PlaceOrder(context.Background(), orders.PlaceOrderInput{
		TableID: tableID,
		Items:   []orders.ItemInput{{Name: "Latte", Quantity: 2, UnitPrice: 10}},
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) dial(t *testing.T, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

type frame struct {
	Type  FrameType       `json:"type"`
	View  string          `json:"view"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil match kabul edene kadar frame atlar.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	for i := 0; i < 10; i++ {
		f := readFrame(t, conn)
		if match(f) {
			return f
		}
	}
	t.Fatal("beklenen mesaj gelmedi")
	return frame{}
}

func TestTracker_SnapshotThenOrder(t *testing.T) {
	f := newFixture(t)
	tbl := f.table(t, 3)

	conn, _, err := f.dial(t, "/live/tables/"+itoa(tbl.ID)+"/orders")
	require.NoError(t, err)

	first := readFrame(t, conn)
	require.Equal(t, FrameSnapshot, first.Type)
	var v livesync.OrderTracker
	require.NoError(t, json.Unmarshal(first.Data, &v))
	assert.Nil(t, v.CurrentOrder)
	assert.Equal(t, status.EmptyNoOrder, v.EmptyState)

	placed := f.place(t, tbl.ID)

	got := readUntil(t, conn, func(fr frame) bool {
		var tr livesync.OrderTracker
		return json.Unmarshal(fr.Data, &tr) == nil && tr.CurrentOrder != nil
	})
	require.NoError(t, json.Unmarshal(got.Data, &v))
	assert.Equal(t, placed.ID, v.CurrentOrder.ID)
	assert.Equal(t, status.OrderPending, v.CurrentOrder.Status)
	assert.Equal(t, 3, v.TableNumber)
}

func TestTracker_UnknownTable(t *testing.T) {
	f := newFixture(t)

	_, resp, err := f.dial(t, "/live/tables/42/orders")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaffViews_RequireToken(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/live/dashboard", "/live/tables", "/live/layout"} {
		_, resp, err := f.dial(t, path)
		require.Error(t, err, path)
		require.NotNil(t, resp, path)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	_, resp, err := f.dial(t, "/live/dashboard?token=bozuk")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDashboard_FirstDeliverySilentThenNewOrder(t *testing.T) {
	f := newFixture(t)
	tbl := f.table(t, 1)
	f.place(t, tbl.ID)
	token := f.token(t)

	conn, _, err := f.dial(t, "/live/dashboard?token="+token)
	require.NoError(t, err)

	var d livesync.Dashboard
	require.NoError(t, json.Unmarshal(readFrame(t, conn).Data, &d))
	assert.Empty(t, d.Notifications)
	assert.Len(t, d.ActiveOrders, 1)

	f.place(t, tbl.ID)

	got := readUntil(t, conn, func(fr frame) bool {
		var dd livesync.Dashboard
		return json.Unmarshal(fr.Data, &dd) == nil && len(dd.Notifications) > 0
	})
	require.NoError(t, json.Unmarshal(got.Data, &d))
	assert.Len(t, d.ActiveOrders, 2)
	assert.Contains(t, d.Notifications[0].Details, "Masa 1")
}

func TestLayout_MoveIsClampedAndAcked(t *testing.T) {
	f := newFixture(t)
	tbl := f.table(t, 1)
	token := f.token(t)

	conn, _, err := f.dial(t, "/live/layout?token="+token)
	require.NoError(t, err)
	require.Equal(t, FrameSnapshot, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(MoveMessage{Type: "move", TableID: tbl.ID, X: 5000, Y: -20}))

	ack := readUntil(t, conn, func(fr frame) bool { return fr.Type == FrameAck })
	var body struct {
		TableID  uint                `json:"table_id"`
		Position floorplan.Point     `json:"position"`
		State    livesync.FieldState `json:"state"`
	}
	require.NoError(t, json.Unmarshal(ack.Data, &body))
	assert.Equal(t, tbl.ID, body.TableID)
	assert.Equal(t, floorplan.Point{X: layout.Width - floorplan.TableWidth, Y: 0}, body.Position)
	assert.Equal(t, livesync.FieldCommitted, body.State)

	stored, err := f.tables.Get(context.Background(), tbl.ID)
	require.NoError(t, err)
	assert.Equal(t, layout.Width-floorplan.TableWidth, stored.PositionX)
}

func TestLayout_BadMessages(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)

	conn, _, err := f.dial(t, "/live/layout?token="+token)
	require.NoError(t, err)
	readFrame(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"resize"}`)))
	bad := readUntil(t, conn, func(fr frame) bool { return fr.Type == FrameError })
	assert.Contains(t, bad.Error, "geçersiz mesaj")

	require.NoError(t, conn.WriteJSON(MoveMessage{Type: "move", TableID: 99, X: 10, Y: 10}))
	missing := readUntil(t, conn, func(fr frame) bool { return fr.Type == FrameError })
	assert.Equal(t, "Masa bulunamadı", missing.Error)
}

func TestSnapshotHandlers(t *testing.T) {
	f := newFixture(t)
	tbl := f.table(t, 7)
	f.place(t, tbl.ID)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/tracker/:id", OrderTrackerHandler(f.srv))
	app.Get("/tables-view", TablesViewHandler(f.srv))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tracker/"+itoa(tbl.ID), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v livesync.OrderTracker
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	require.NotNil(t, v.CurrentOrder)
	assert.Equal(t, 20.0, v.CurrentOrder.TotalAmount)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/tracker/404", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/tables-view", nil))
	require.NoError(t, err)
	var rows []livesync.TableRow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ActiveOrders)
	assert.Equal(t, status.TablePending, rows[0].Status)
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
