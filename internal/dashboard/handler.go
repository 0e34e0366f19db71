package dashboard

import (
	"seedprocure-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/stats?year=2025
func StatsHandler(a *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year := c.QueryInt("year", 0)
		if year == 0 {
			year = a.now().Year()
		}
		if year < 2000 || year > 2100 {
			return apperr.Validation("year %d is out of range", year)
		}

		st, err := a.Stats(c.UserContext(), year)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}
