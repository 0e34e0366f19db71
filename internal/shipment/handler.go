package shipment

import (
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/auth"
	"seedprocure-backend/internal/httpx"
	"seedprocure-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type OpenShipmentRequest struct {
	VehicleNumber     string `json:"vehicle_number"`
	DriverName        string `json:"driver_name"`
	TargetBagCapacity int    `json:"target_bag_capacity"`
}

type AllocateRequest struct {
	CycleID uint `json:"cycle_id"`
}

type ShipmentResponse struct {
	ID                uint                  `json:"id"`
	VehicleNumber     string                `json:"vehicle_number"`
	DriverName        string                `json:"driver_name"`
	Status            models.ShipmentStatus `json:"status"`
	TargetBagCapacity int                   `json:"target_bag_capacity"`
	TotalBags         int                   `json:"total_bags"`
	RemainingBags     int                   `json:"remaining_bags"`
	CreationDate      string                `json:"creation_date"`
	LoadedAt          *time.Time            `json:"loaded_at,omitempty"`
	DispatchedAt      *time.Time            `json:"dispatched_at,omitempty"`
	Cycles            []ShipmentCycle       `json:"cycles,omitempty"`
}

type ShipmentCycle struct {
	CycleID         uint               `json:"cycle_id"`
	Status          models.CycleStatus `json:"status"`
	FarmerName      string             `json:"farmer_name"`
	SeedVarietyName string             `json:"seed_variety_name"`
	LotNo           string             `json:"lot_no"`
	QuantityInBags  int                `json:"quantity_in_bags"`
	IsFarmerPaid    bool               `json:"is_farmer_paid"`
}

func toResponse(sh *models.Shipment) ShipmentResponse {
	resp := ShipmentResponse{
		ID:                sh.ID,
		VehicleNumber:     sh.VehicleNumber,
		DriverName:        sh.DriverName,
		Status:            sh.Status,
		TargetBagCapacity: sh.TargetBagCapacity,
		TotalBags:         sh.TotalBags,
		RemainingBags:     sh.RemainingBags(),
		CreationDate:      sh.CreationDate.Format(time.RFC3339),
		LoadedAt:          sh.LoadedAt,
		DispatchedAt:      sh.DispatchedAt,
	}
	for _, c := range sh.Cycles {
		resp.Cycles = append(resp.Cycles, ShipmentCycle{
			CycleID:         c.ID,
			Status:          c.Status,
			FarmerName:      c.Farmer.Name,
			SeedVarietyName: c.SeedVariety.Name,
			LotNo:           c.LotNo,
			QuantityInBags:  c.QuantityInBags,
			IsFarmerPaid:    c.IsFarmerPaid != nil && *c.IsFarmerPaid,
		})
	}
	return resp
}

// POST /api/shipments
func OpenShipmentHandler(a *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		var body OpenShipmentRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		sh, err := a.OpenShipment(c.UserContext(), OpenInput{
			VehicleNumber:     body.VehicleNumber,
			DriverName:        body.DriverName,
			TargetBagCapacity: body.TargetBagCapacity,
		}, actorID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":     true,
			"shipment_id": sh.ID,
			"shipment":    toResponse(sh),
		})
	}
}

// POST /api/shipments/:id/allocate
func AllocateHandler(a *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		shipmentID, err := httpx.PathID(c, "id", "shipment id")
		if err != nil {
			return err
		}
		var body AllocateRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if body.CycleID == 0 {
			return apperr.Validation("cycle_id is required")
		}

		res, err := a.Allocate(c.UserContext(), body.CycleID, shipmentID, actorID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success":      true,
			"cycle_id":     res.Cycle.ID,
			"cycle_status": res.Cycle.Status,
			"shipment":     toResponse(res.Shipment),
		})
	}
}

// POST /api/shipments/:id/close
func CloseShipmentHandler(a *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "shipment id")
		if err != nil {
			return err
		}
		sh, err := a.CloseShipment(c.UserContext(), id, actorID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "shipment": toResponse(sh)})
	}
}

// POST /api/shipments/:id/dispatch
func DispatchHandler(a *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		id, err := httpx.PathID(c, "id", "shipment id")
		if err != nil {
			return err
		}
		sh, err := a.Dispatch(c.UserContext(), id, actorID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "shipment": toResponse(sh)})
	}
}

// GET /api/shipments/in-progress
func ListInProgressHandler(a *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := a.ListInProgress(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/shipments/:id
func GetShipmentHandler(a *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.PathID(c, "id", "shipment id")
		if err != nil {
			return err
		}
		sh, err := a.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(sh))
	}
}
