package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kafe-backend/internal/models"
	"kafe-backend/internal/status"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMenu map[uint]models.MenuItem

func (m fakeMenu) ItemsByID(_ context.Context, ids []uint) (map[uint]models.MenuItem, error) {
	out := make(map[uint]models.MenuItem)
	for _, id := range ids {
		if it, ok := m[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func newOrderApp(l *Ledger) *fiber.App {
	menu := fakeMenu{
		1: {ID: 1, Name: "Latte", Price: 10, IsAvailable: true},
		2: {ID: 2, Name: "Kurabiye", Price: 5, IsAvailable: true},
		3: {ID: 3, Name: "Sufle", Price: 90, IsAvailable: false},
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Post("/orders", PlaceOrderHandler(l, menu))
	app.Put("/orders/:id/status", AdvanceOrderStatusHandler(l))
	app.Post("/tables/:id/clear", ClearTableHandler(l))
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestPlaceOrderHandler_PricesFromMenu(t *testing.T) {
	f := newFixture(t)
	tbl := f.table(t, 1, status.TableAvailable)
	app := newOrderApp(f.ledger)

	resp := send(t, app, http.MethodPost, "/orders",
		`{"table_id":1,"items":[{"menu_item_id":1,"quantity":2},{"menu_item_id":2,"quantity":1}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var o models.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	assert.Equal(t, 25.0, o.TotalAmount)
	assert.Equal(t, tbl.ID, o.TableID)

	resp = send(t, app, http.MethodPost, "/orders", `{"table_id":1,"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = send(t, app, http.MethodPost, "/orders", `{"table_id":1,"items":[{"menu_item_id":3,"quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unavailable item")

	resp = send(t, app, http.MethodPost, "/orders", `{"table_id":9,"items":[{"menu_item_id":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusAndClearHandlers(t *testing.T) {
	f := newFixture(t)
	tbl := f.table(t, 1, status.TablePending)
	o := f.order(t, tbl.ID, status.OrderPending)
	app := newOrderApp(f.ledger)

	resp := send(t, app, http.MethodPut, "/orders/1/status", `{"status":"ready"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, status.TableDelivered, f.tableStatus(t, tbl.ID))

	resp = send(t, app, http.MethodPut, "/orders/1/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = send(t, app, http.MethodPost, "/tables/1/clear", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res ClearResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, []uint{o.ID}, res.Completed)
	assert.Equal(t, status.TableAvailable, res.Table.Status)
}
