package reports

import (
	"kafe-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/reports?period=today|week|month|year
func ReportHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := ParsePeriod(c.Query("period"))
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		r, err := s.Report(c.UserContext(), p)
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(r)
	}
}
