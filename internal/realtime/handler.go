package realtime

import (
	"kafe-backend/internal/apperr"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/livesync"

	"github.com/gofiber/fiber/v2"
)

// Anlık görüntüler: WebSocket açamayan istemciler için tek seferlik okuma.

// GET /api/dashboard
func DashboardHandler(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := auth.CurrentSession(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Oturum bulunamadı")
		}
		d, err := s.dashboardFeed(sess).Load(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(d)
	}
}

// GET /api/tables-view
func TablesViewHandler(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := livesync.TablesViewLoader(s.deps.Tables, s.deps.Orders)(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(rows)
	}
}

// GET /api/layout
func LayoutHandler(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view := livesync.NewLayoutView(s.deps.Tables, s.deps.Tables, s.deps.Layout)
		entries, err := view.Load(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(fiber.Map{
			"width":  s.deps.Layout.Width,
			"height": s.deps.Layout.Height,
			"tables": entries,
		})
	}
}

// GET /api/public/tables/:id/tracker
func OrderTrackerHandler(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz masa ID")
		}
		v, err := livesync.OrderTrackerLoader(s.deps.Tables, s.deps.Orders, uint(id), s.deps.Now)(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err, "Masa bulunamadı")
		}
		return c.JSON(v)
	}
}
