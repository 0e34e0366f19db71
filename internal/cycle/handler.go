package cycle

import (
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/auth"
	"seedprocure-backend/internal/httpx"
	"seedprocure-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MarkHarvestedRequest struct {
	CollectionMethod models.CollectionMethod `json:"collection_method"`
}

type RecordSampleRequest struct {
	Moisture   *float64 `json:"moisture"`
	Purity     *float64 `json:"purity"`
	Dust       *float64 `json:"dust"`
	ColorGrade string   `json:"color_grade"`
	NonSeed    string   `json:"non_seed"`
	Remarks    string   `json:"remarks"`
	TempPrice  *float64 `json:"temp_price"`
}

type RecordWeighingRequest struct {
	QuantityInBags int    `json:"quantity_in_bags"`
	LotNo          string `json:"lot_no"`
}

type SchedulePaymentRequest struct {
	FinalPayment  float64 `json:"final_payment"`
	ChequeDueDate string  `json:"cheque_due_date"` // "2025-12-09"
}

// CycleResponse is the command reply; it echoes the fields a client needs to
// refresh its row.
type CycleResponse struct {
	Success        bool               `json:"success"`
	Message        string             `json:"message,omitempty"`
	CycleID        uint               `json:"cycle_id"`
	Status         models.CycleStatus `json:"status"`
	LotNo          string             `json:"lot_no,omitempty"`
	QuantityInBags int                `json:"quantity_in_bags,omitempty"`
	UpdatedAt      string             `json:"updated_at"`
}

func respond(c *fiber.Ctx, cyc *models.CropCycle, msg string) error {
	return c.JSON(CycleResponse{
		Success:        true,
		Message:        msg,
		CycleID:        cyc.ID,
		Status:         cyc.Status,
		LotNo:          cyc.LotNo,
		QuantityInBags: cyc.QuantityInBags,
		UpdatedAt:      cyc.UpdatedAt.Format(time.RFC3339),
	})
}

// POST /api/cycles/:id/harvest
func MarkHarvestedHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		var body MarkHarvestedRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		cyc, err := svc.MarkHarvested(c.UserContext(), id, body.CollectionMethod, actorID)
		if err != nil {
			return err
		}
		return respond(c, cyc, "Cycle marked as harvested")
	}
}

// POST /api/cycles/:id/sample-received
func MarkSampleReceivedHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		cyc, err := svc.MarkSampleReceived(c.UserContext(), id, actorID)
		if err != nil {
			return err
		}
		return respond(c, cyc, "")
	}
}

// POST /api/cycles/:id/sample
func RecordSampleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		var body RecordSampleRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		cyc, err := svc.RecordSample(c.UserContext(), id, SampleInput{
			Moisture:             body.Moisture,
			Purity:               body.Purity,
			Dust:                 body.Dust,
			ColorGrade:           body.ColorGrade,
			NonSeed:              body.NonSeed,
			Remarks:              body.Remarks,
			TemporaryPricePerMan: body.TempPrice,
		}, actorID)
		if err != nil {
			return err
		}
		return respond(c, cyc, "")
	}
}

// POST /api/cycles/:id/weighing
func RecordWeighingHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		var body RecordWeighingRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		cyc, err := svc.RecordWeighing(c.UserContext(), id, WeighingInput{
			QuantityInBags: body.QuantityInBags,
			LotNo:          body.LotNo,
		}, actorID)
		if err != nil {
			return err
		}
		return respond(c, cyc, "")
	}
}

// POST /api/cycles/:id/payment
func SchedulePaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		var body SchedulePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		due, err := time.Parse("2006-01-02", body.ChequeDueDate)
		if err != nil {
			return apperr.Validation("cheque_due_date must be YYYY-MM-DD")
		}
		cyc, err := svc.SchedulePayment(c.UserContext(), id, body.FinalPayment, due, actorID)
		if err != nil {
			return err
		}
		return respond(c, cyc, "")
	}
}

// POST /api/cycles/:id/paid
func MarkFarmerPaidHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		cyc, err := svc.MarkFarmerPaid(c.UserContext(), id, actorID)
		if err != nil {
			return err
		}
		return respond(c, cyc, "")
	}
}

// GET /api/cycles/pending-samples?year=2025
func ListPendingSamplesHandler(l *Lister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		year := c.QueryInt("year", 0)
		if year < 0 {
			return apperr.Validation("year is invalid")
		}
		rows, err := l.PendingSamples(c.UserContext(), actorID, year)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}
