package orders

import (
	"context"
	"fmt"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"
	"kafe-backend/internal/status"

	"github.com/gofiber/fiber/v2"
)

const notFoundMsg = "Sipariş bulunamadı"

// MenuLookup müşterinin seçtiği ürünleri bulur. Fiyat her zaman menüden gelir,
// istekten değil.
type MenuLookup interface {
	ItemsByID(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error)
}

type OrderItemRequest struct {
	MenuItemID          uint   `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

type PlaceOrderRequest struct {
	TableID         uint               `json:"table_id"`
	Items           []OrderItemRequest `json:"items"`
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	SpecialRequests string             `json:"special_requests"`
}

type OrderStatusRequest struct {
	Status status.OrderStatus `json:"status"`
}

type TableStatusRequest struct {
	Status status.TableStatus `json:"status"`
}

func resolveItems(ctx context.Context, menu MenuLookup, req []OrderItemRequest) ([]ItemInput, error) {
	if len(req) == 0 {
		return nil, apperr.ErrEmptyCart
	}
	ids := make([]uint, 0, len(req))
	for _, it := range req {
		ids = append(ids, it.MenuItemID)
	}
	found, err := menu.ItemsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ItemInput, 0, len(req))
	for _, it := range req {
		m, ok := found[it.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: ürün %d bulunamadı", apperr.ErrInvalidItem, it.MenuItemID)
		}
		if !m.IsAvailable {
			return nil, fmt.Errorf("%w: %s şu an servis dışı", apperr.ErrInvalidItem, m.Name)
		}
		out = append(out, ItemInput{
			MenuItemID:          m.ID,
			Name:                m.Name,
			Quantity:            it.Quantity,
			UnitPrice:           m.Price,
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	return out, nil
}

func paramID(c *fiber.Ctx, msg string) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, msg)
	}
	return uint(id), nil
}

// POST /api/orders  (QR menüden, oturum gerekmez)
func PlaceOrderHandler(l *Ledger, menu MenuLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PlaceOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.TableID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Masa seçilmedi")
		}
		items, err := resolveItems(c.UserContext(), menu, body.Items)
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		order, err := l.PlaceOrder(c.UserContext(), PlaceOrderInput{
			TableID:         body.TableID,
			Items:           items,
			Customer:        Customer{Name: body.CustomerName, Phone: body.CustomerPhone},
			SpecialRequests: body.SpecialRequests,
		})
		if err != nil {
			return apperr.ToFiber(err, "Masa bulunamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// GET /api/orders/:id
func GetOrderHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Geçersiz sipariş ID")
		if err != nil {
			return err
		}
		o, err := l.Get(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(o)
	}
}

// PUT /api/orders/:id/status
func AdvanceOrderStatusHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Geçersiz sipariş ID")
		if err != nil {
			return err
		}
		var body OrderStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		o, err := l.AdvanceOrderStatus(c.UserContext(), id, body.Status)
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(o)
	}
}

// GET /api/orders/today
func TodayOrdersHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := l.ListTodayOrders(c.UserContext(), l.now())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(list)
	}
}

// GET /api/tables/:id/orders
func TableOrdersHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Geçersiz masa ID")
		if err != nil {
			return err
		}
		list, err := l.ListOrdersForTable(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(list)
	}
}

// PUT /api/tables/:id/status
func AdvanceTableStatusHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Geçersiz masa ID")
		if err != nil {
			return err
		}
		var body TableStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		t, err := l.AdvanceTableStatus(c.UserContext(), id, body.Status)
		if err != nil {
			return apperr.ToFiber(err, "Masa bulunamadı")
		}
		return c.JSON(t)
	}
}

// POST /api/tables/:id/clear
func ClearTableHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Geçersiz masa ID")
		if err != nil {
			return err
		}
		res, err := l.ClearTable(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, "Masa bulunamadı")
		}
		return c.JSON(res)
	}
}
