package report

import (
	"fmt"
	"time"

	"seedprocure-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/reports/pending-payments.xlsx?year=2025
func PendingPaymentsHandler(e *Exporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year := c.QueryInt("year", time.Now().Year())
		if year < 2000 || year > 2100 {
			return apperr.Validation("year %d is out of range", year)
		}

		buf, err := e.PendingPaymentsWorkbook(c.UserContext(), year)
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="pending-payments-%d.xlsx"`, year))
		return c.Send(buf.Bytes())
	}
}
