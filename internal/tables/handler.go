package tables

import (
	"kafe-backend/internal/apperr"
	"kafe-backend/internal/status"

	"github.com/gofiber/fiber/v2"
)

const notFoundMsg = "Masa bulunamadı"

type CreateTableRequest struct {
	Number      int                `json:"number"`
	Capacity    int                `json:"capacity"`
	Status      status.TableStatus `json:"status"`
	Description string             `json:"description"`
}

type UpdateTableRequest struct {
	Number      *int                `json:"number"`
	Capacity    *int                `json:"capacity"`
	Description *string             `json:"description"`
	Status      *status.TableStatus `json:"status"`
}

type MoveTableRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz masa ID")
	}
	return uint(id), nil
}

// GET /api/tables
func ListTablesHandler(r *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := r.ListTables(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(list)
	}
}

// GET /api/tables/:id  (QR menü masayı bu uçtan doğrular)
func GetTableHandler(r *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		t, err := r.Get(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(t)
	}
}

// POST /api/admin/tables
func CreateTableHandler(r *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		t, err := r.CreateTable(c.UserContext(), NewTable(body))
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

// PUT /api/admin/tables/:id
func UpdateTableHandler(r *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body UpdateTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		t, err := r.UpdateTable(c.UserContext(), id, TablePatch(body))
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(t)
	}
}

// DELETE /api/admin/tables/:id
func DeleteTableHandler(r *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := r.DeleteTable(c.UserContext(), id); err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(fiber.Map{"message": "Masa silindi"})
	}
}

// PUT /api/admin/tables/:id/position
func MoveTableHandler(r *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body MoveTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		t, err := r.MoveTable(c.UserContext(), id, body.X, body.Y)
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(t)
	}
}

// POST /api/admin/tables/:id/maintenance
func ToggleMaintenanceHandler(r *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		t, err := r.ToggleMaintenance(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(t)
	}
}
