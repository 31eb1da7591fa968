package auth

import (
	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RegisterAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register-admin
func RegisterAdminHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		user, err := svc.RegisterFirstAdmin(c.UserContext(), body.Name, body.Email, body.Password)
		if err != nil {
			return apperr.ToFiber(err, "")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

// POST /api/auth/login
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		token, sess, err := svc.SignIn(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return apperr.ToFiber(err, "")
		}

		return c.JSON(fiber.Map{
			"token":      token,
			"expires_at": sess.ExpiresAt,
			"user": fiber.Map{
				"id":    sess.UserID,
				"name":  sess.Name,
				"email": sess.Email,
				"role":  sess.Role,
			},
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Oturum bulunamadı")
		}
		if err := svc.SignOut(c.UserContext(), sess.ID); err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Oturum bulunamadı")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, sess.UserID).Error; err != nil {
			return apperr.ToFiber(apperr.Store("me", err), "Kullanıcı bulunamadı")
		}

		return c.JSON(fiber.Map{
			"user_id":    user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"role":       user.Role,
			"position":   user.Position,
			"on_shift":   user.OnShift,
			"session_id": sess.ID,
			"expires_at": sess.ExpiresAt,
		})
	}
}
