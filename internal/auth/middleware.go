package auth

import (
	"errors"
	"strings"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxSessionKey = "session"

// Middleware Bearer token'ı Session'a çözer, hem c.Locals'a hem isteğin
// user context'ine koyar.
func Middleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		sess, err := svc.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			if errors.Is(err, apperr.ErrSessionClosed) {
				return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
			}
			return apperr.ToFiber(err, "")
		}

		c.Locals(CtxSessionKey, sess)
		c.SetUserContext(WithSession(c.UserContext(), sess))
		return c.Next()
	}
}

func CurrentSession(c *fiber.Ctx) (*Session, bool) {
	sess, ok := c.Locals(CtxSessionKey).(*Session)
	return sess, ok && sess != nil
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == sess.Role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}
