package staff

import (
	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const notFoundMsg = "Personel bulunamadı"

type CreateStaffRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Position string          `json:"position"`
	Role     models.UserRole `json:"role"`
	Password string          `json:"password"`
	IsActive *bool           `json:"is_active"`
	OnShift  bool            `json:"on_shift"`
}

type UpdateStaffRequest struct {
	Name     *string          `json:"name"`
	Email    *string          `json:"email"`
	Phone    *string          `json:"phone"`
	Position *string          `json:"position"`
	Role     *models.UserRole `json:"role"`
	IsActive *bool            `json:"is_active"`
	OnShift  *bool            `json:"on_shift"`
	Password *string          `json:"password"` // boş bırakılırsa değişmez
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type ListResponse struct {
	Staff   []models.User `json:"staff"`
	Summary Summary       `json:"summary"`
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz personel ID")
	}
	return uint(id), nil
}

// GET /api/admin/staff
func ListStaffHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := s.ListStaff(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel listelenemedi")
		}
		return c.JSON(ListResponse{Staff: list, Summary: Summarize(list)})
	}
}

// POST /api/admin/staff
func CreateStaffHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStaffRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		active := true
		if body.IsActive != nil {
			active = *body.IsActive
		}
		u, err := s.Create(c.UserContext(), NewStaff{
			Name: body.Name, Email: body.Email, Phone: body.Phone, Position: body.Position,
			Role: body.Role, Password: body.Password, IsActive: active, OnShift: body.OnShift,
		})
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// PUT /api/admin/staff/:id
func UpdateStaffHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body UpdateStaffRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		u, err := s.Update(c.UserContext(), id, Patch(body))
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(u)
	}
}

// DELETE /api/admin/staff/:id
func DeleteStaffHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := s.Delete(c.UserContext(), id); err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/staff/:id/toggle-active
func ToggleActiveHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		u, err := s.ToggleActive(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(u)
	}
}

// POST /api/admin/staff/:id/toggle-shift
func ToggleShiftHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		u, err := s.ToggleShift(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(u)
	}
}

// POST /api/admin/staff/:id/reset-password
func ResetPasswordHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body ResetPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if err := s.ResetPassword(c.UserContext(), id, body.Password); err != nil {
			return apperr.ToFiber(err, notFoundMsg)
		}
		return c.JSON(fiber.Map{"message": "Şifre güncellendi"})
	}
}
