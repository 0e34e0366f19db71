package pricing

import (
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/auth"
	"seedprocure-backend/internal/httpx"
	"seedprocure-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TemporaryPriceRequest struct {
	Price float64 `json:"price"`
}

type FinalPriceRequest struct {
	FinalPrice float64 `json:"final_price"`
}

type PriceResponse struct {
	Success              bool               `json:"success"`
	CycleID              uint               `json:"cycle_id"`
	Status               models.CycleStatus `json:"status"`
	TemporaryPricePerMan *float64           `json:"temporary_price_per_man,omitempty"`
	PurchaseRate         *float64           `json:"purchase_rate,omitempty"`
	PricingDate          *time.Time         `json:"pricing_date,omitempty"`
}

func toResponse(c *models.CropCycle) PriceResponse {
	return PriceResponse{
		Success:              true,
		CycleID:              c.ID,
		Status:               c.Status,
		TemporaryPricePerMan: c.TemporaryPricePerMan,
		PurchaseRate:         c.PurchaseRate,
		PricingDate:          c.PricingDate,
	}
}

// POST /api/cycles/:id/temporary-price
func SetTemporaryPriceHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		var body TemporaryPriceRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		cyc, err := svc.SetTemporaryPrice(c.UserContext(), id, body.Price, actorID)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(cyc))
	}
}

// POST /api/cycles/:id/final-price
func FinalizePriceHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		var body FinalPriceRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		cyc, err := svc.VerifyAndFinalizePrice(c.UserContext(), id, body.FinalPrice, actorID)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(cyc))
	}
}
