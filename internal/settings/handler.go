package settings

import (
	"kafe-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// GET /api/settings/cafe  (menü başlığı için herkese açık)
func GetCafeHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cafe, err := s.Cafe(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(cafe)
	}
}

// PUT /api/admin/settings/cafe
func SaveCafeHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Cafe
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		cafe, err := s.SaveCafe(c.UserContext(), body)
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(cafe)
	}
}

// GET /api/settings/theme
func GetThemeHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := s.Theme(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(t)
	}
}

// PUT /api/admin/settings/theme
func SaveThemeHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Theme
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		t, err := s.SaveTheme(c.UserContext(), body)
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(t)
	}
}
