// Package shipment loads weighed crop cycles onto outbound vehicles. The
// shipment and the cycle have separate status machines, linked only through
// crop_cycles.shipment_id.
package shipment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/audit"
	"seedprocure-backend/internal/cycle"
	"seedprocure-backend/internal/models"

	"gorm.io/gorm"
)

// maxAllocationAttempts bounds the compare-and-swap loop on total_bags.
const maxAllocationAttempts = 3

type Allocator struct {
	m *cycle.Machine
}

func NewAllocator(m *cycle.Machine) *Allocator {
	return &Allocator{m: m}
}

type OpenInput struct {
	VehicleNumber     string
	DriverName        string
	TargetBagCapacity int
}

// Allocation is the result of a successful Allocate.
type Allocation struct {
	Cycle    *models.CropCycle
	Shipment *models.Shipment
}

func (a *Allocator) OpenShipment(ctx context.Context, in OpenInput, actorID uint) (*models.Shipment, error) {
	in.VehicleNumber = strings.TrimSpace(in.VehicleNumber)
	in.DriverName = strings.TrimSpace(in.DriverName)
	if in.TargetBagCapacity <= 0 {
		return nil, apperr.Validation("target_bag_capacity must be greater than zero")
	}
	if in.VehicleNumber == "" || in.DriverName == "" {
		return nil, apperr.Validation("vehicle_number and driver_name are required")
	}

	now := a.m.Now()
	sh := &models.Shipment{
		VehicleNumber:     in.VehicleNumber,
		DriverName:        in.DriverName,
		TargetBagCapacity: in.TargetBagCapacity,
		TotalBags:         0,
		Status:            models.ShipmentLoading,
		CreationDate:      now,
		CreatedBy:         actorID,
		UpdatedAt:         now,
	}
	err := a.m.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(sh).Error; err != nil {
			return apperr.Storage("create shipment", err)
		}
		return a.audit(tx, actorID, sh.ID, "open_shipment",
			fmt.Sprintf("shipment %s opened, capacity %d bags", sh.VehicleNumber, sh.TargetBagCapacity), nil, sh)
	})
	if err != nil {
		a.m.Logger().Error("open shipment failed", "error", err)
		return nil, err
	}
	a.m.Logger().Info("shipment opened", "shipment_id", sh.ID, "capacity", sh.TargetBagCapacity, "actor_id", actorID)
	return sh, nil
}

// Allocate moves all bags of one weighed cycle onto an open shipment. The
// capacity check and the total_bags increment are one conditional update; a
// cycle is never split across shipments.
func (a *Allocator) Allocate(ctx context.Context, cycleID, shipmentID, actorID uint) (*Allocation, error) {
	var out Allocation
	err := a.m.InTx(ctx, func(tx *gorm.DB) error {
		cur, err := cycle.LoadTx(tx, cycleID)
		if err != nil {
			return err
		}
		if cur.Status != models.CycleWeighed {
			return apperr.InvalidTransition("allocate: cycle %d is %s", cycleID, cur.Status)
		}
		if cur.ShipmentID != nil {
			return apperr.InvalidTransition("allocate: cycle %d is already on shipment %d", cycleID, *cur.ShipmentID)
		}
		if cur.QuantityInBags <= 0 {
			return apperr.Validation("cycle %d has no weighed bags", cycleID)
		}

		before, sh, err := a.reserve(tx, shipmentID, cur.QuantityInBags)
		if err != nil {
			return err
		}

		cyc, err := a.m.ApplyTx(tx, actorID, cycleID, cycle.OpAllocate, func(*models.CropCycle) (map[string]any, error) {
			return map[string]any{
				"shipment_id":  shipmentID,
				"loading_date": a.m.Now(),
			}, nil
		})
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("cycle %d (%d bags) loaded, %d/%d", cycleID, cur.QuantityInBags, sh.TotalBags, sh.TargetBagCapacity)
		if err := a.audit(tx, actorID, shipmentID, "allocate", desc, before, sh); err != nil {
			return err
		}
		out = Allocation{Cycle: cyc, Shipment: sh}
		return nil
	})

	a.m.Observe(cycle.OpAllocate.Name, cycleID, actorID, err)
	rec := a.m.Metrics()
	if err != nil {
		rec.Allocation(string(apperr.KindOf(err)))
		return nil, err
	}
	rec.Allocation("ok")
	a.m.Logger().Info("cycle allocated",
		"cycle_id", cycleID,
		"shipment_id", shipmentID,
		"total_bags", out.Shipment.TotalBags,
		"capacity", out.Shipment.TargetBagCapacity,
	)
	return &out, nil
}

// reserve adds bags to the shipment's total with a compare-and-swap on the
// value it read. A miss means another allocation committed in between; the
// current total is re-read and the capacity check re-evaluated.
func (a *Allocator) reserve(tx *gorm.DB, shipmentID uint, bags int) (*models.Shipment, *models.Shipment, error) {
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		cur, err := loadShipment(tx, shipmentID)
		if err != nil {
			return nil, nil, err
		}
		if cur.Status != models.ShipmentLoading {
			return nil, nil, apperr.InvalidTransition("allocate: shipment %d is %s", shipmentID, cur.Status)
		}
		next := cur.TotalBags + bags
		if next > cur.TargetBagCapacity {
			return nil, nil, apperr.CapacityExceeded("shipment %d has %d of %d bags, cannot add %d",
				shipmentID, cur.TotalBags, cur.TargetBagCapacity, bags)
		}

		now := a.m.Now()
		updates := map[string]any{
			"total_bags": next,
			"updated_at": now,
		}
		if next == cur.TargetBagCapacity {
			updates["status"] = models.ShipmentLoaded
			updates["loaded_at"] = now
		}
		res := tx.Model(&models.Shipment{}).
			Where("id = ? AND status = ? AND total_bags = ?", shipmentID, models.ShipmentLoading, cur.TotalBags).
			Updates(updates)
		if res.Error != nil {
			return nil, nil, apperr.Storage("update shipment", res.Error)
		}
		if res.RowsAffected == 1 {
			updated, err := loadShipment(tx, shipmentID)
			if err != nil {
				return nil, nil, err
			}
			return cur, updated, nil
		}
		a.m.Metrics().AllocationConflict()
		a.m.Logger().Debug("shipment total changed during allocation", "shipment_id", shipmentID, "attempt", attempt+1)
	}
	return nil, nil, apperr.ConflictRetryExhausted("shipment %d: total_bags kept changing, retry the allocation", shipmentID)
}

// CloseShipment stops loading. A shipment may be closed below capacity.
func (a *Allocator) CloseShipment(ctx context.Context, shipmentID, actorID uint) (*models.Shipment, error) {
	var out *models.Shipment
	err := a.m.InTx(ctx, func(tx *gorm.DB) error {
		before, err := loadShipment(tx, shipmentID)
		if err != nil {
			return err
		}
		now := a.m.Now()
		if err := a.move(tx, before, models.ShipmentLoading, map[string]any{
			"status":     models.ShipmentLoaded,
			"loaded_at":  now,
			"updated_at": now,
		}); err != nil {
			return err
		}
		out, err = loadShipment(tx, shipmentID)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("shipment closed at %d/%d bags", out.TotalBags, out.TargetBagCapacity)
		return a.audit(tx, actorID, shipmentID, "close_shipment", desc, before, out)
	})
	a.logShipment("close_shipment", shipmentID, actorID, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Dispatch sends a loaded shipment. Its cycles follow: paid cycles complete,
// unpaid ones wait in Dispatched for settlement.
func (a *Allocator) Dispatch(ctx context.Context, shipmentID, actorID uint) (*models.Shipment, error) {
	var (
		out       *models.Shipment
		cycleIDs  []uint
		completed int
	)
	err := a.m.InTx(ctx, func(tx *gorm.DB) error {
		before, err := loadShipment(tx, shipmentID)
		if err != nil {
			return err
		}
		now := a.m.Now()
		if err := a.move(tx, before, models.ShipmentLoaded, map[string]any{
			"status":        models.ShipmentDispatched,
			"dispatched_at": now,
			"updated_at":    now,
		}); err != nil {
			return err
		}

		var cycles []models.CropCycle
		if err := tx.Where("shipment_id = ? AND status = ?", shipmentID, models.CycleLoaded).
			Order("id ASC").Find(&cycles).Error; err != nil {
			return apperr.Storage("load shipment cycles", err)
		}
		for _, c := range cycles {
			op := cycle.OpDispatch
			if c.IsFarmerPaid != nil && *c.IsFarmerPaid {
				op = cycle.OpDispatchPaid
				completed++
			}
			if _, err := a.m.ApplyTx(tx, actorID, c.ID, op, func(*models.CropCycle) (map[string]any, error) {
				return map[string]any{"dispatch_date": now}, nil
			}); err != nil {
				return err
			}
			cycleIDs = append(cycleIDs, c.ID)
		}

		out, err = loadShipment(tx, shipmentID)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("shipment dispatched with %d bags, %d cycles (%d completed)", out.TotalBags, len(cycles), completed)
		return a.audit(tx, actorID, shipmentID, "dispatch", desc, before, out)
	})
	a.logShipment("dispatch", shipmentID, actorID, err)
	if err != nil {
		return nil, err
	}
	for _, id := range cycleIDs {
		a.m.Observe(cycle.OpDispatch.Name, id, actorID, nil)
	}
	return out, nil
}

// move applies a guarded status change to the shipment row.
func (a *Allocator) move(tx *gorm.DB, cur *models.Shipment, from models.ShipmentStatus, updates map[string]any) error {
	if cur.Status != from {
		return apperr.InvalidTransition("shipment %d is %s, expected %s", cur.ID, cur.Status, from)
	}
	res := tx.Model(&models.Shipment{}).Where("id = ? AND status = ?", cur.ID, from).Updates(updates)
	if res.Error != nil {
		return apperr.Storage("update shipment", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidTransition("shipment %d changed concurrently", cur.ID)
	}
	return nil
}

func (a *Allocator) audit(tx *gorm.DB, actorID, shipmentID uint, action, desc string, before, after any) error {
	if err := audit.WriteLog(tx, audit.LogOptions{
		UserID:      actorID,
		EntityType:  models.AuditEntityShipment,
		EntityID:    shipmentID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	}); err != nil {
		return apperr.Storage("audit", err)
	}
	return nil
}

func (a *Allocator) logShipment(op string, shipmentID, actorID uint, err error) {
	log := a.m.Logger()
	switch {
	case err == nil:
		log.Info("shipment transition", "op", op, "shipment_id", shipmentID, "actor_id", actorID)
	case apperr.KindOf(err) == apperr.KindStorage:
		log.Error("shipment transition failed", "op", op, "shipment_id", shipmentID, "error", err)
	default:
		log.Warn("shipment transition rejected", "op", op, "shipment_id", shipmentID, "kind", apperr.KindOf(err), "error", err)
	}
}

func loadShipment(tx *gorm.DB, id uint) (*models.Shipment, error) {
	var sh models.Shipment
	if err := tx.First(&sh, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("shipment %d not found", id)
		}
		return nil, apperr.Storage("load shipment", err)
	}
	return &sh, nil
}
