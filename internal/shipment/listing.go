package shipment

import (
	"context"
	"errors"
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"

	"gorm.io/gorm"
)

// InProgress is one row of the loading board.
type InProgress struct {
	ID                uint                  `json:"id"`
	VehicleNumber     string                `json:"vehicle_number"`
	DriverName        string                `json:"driver_name"`
	Status            models.ShipmentStatus `json:"status"`
	TargetBagCapacity int                   `json:"target_bag_capacity"`
	TotalBags         int                   `json:"total_bags"`
	RemainingBags     int                   `json:"remaining_bags"`
	CycleCount        int64                 `json:"cycle_count"`
	CreationDate      time.Time             `json:"creation_date"`
}

// ListInProgress returns shipments still loading or loaded but not yet
// dispatched, newest first.
func (a *Allocator) ListInProgress(ctx context.Context) ([]InProgress, error) {
	db := a.m.DB().WithContext(ctx)

	var rows []models.Shipment
	if err := db.Where("status IN ?", []models.ShipmentStatus{models.ShipmentLoading, models.ShipmentLoaded}).
		Order("creation_date DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, apperr.Storage("list shipments", err)
	}
	if len(rows) == 0 {
		return []InProgress{}, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var counts []struct {
		ShipmentID uint
		N          int64
	}
	if err := db.Model(&models.CropCycle{}).
		Select("shipment_id, COUNT(*) AS n").
		Where("shipment_id IN ?", ids).
		Group("shipment_id").
		Scan(&counts).Error; err != nil {
		return nil, apperr.Storage("count shipment cycles", err)
	}
	byID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byID[c.ShipmentID] = c.N
	}

	out := make([]InProgress, 0, len(rows))
	for _, r := range rows {
		out = append(out, InProgress{
			ID:                r.ID,
			VehicleNumber:     r.VehicleNumber,
			DriverName:        r.DriverName,
			Status:            r.Status,
			TargetBagCapacity: r.TargetBagCapacity,
			TotalBags:         r.TotalBags,
			RemainingBags:     r.RemainingBags(),
			CycleCount:        byID[r.ID],
			CreationDate:      r.CreationDate,
		})
	}
	return out, nil
}

// Get loads a shipment with its attached cycles and their farmer and variety.
func (a *Allocator) Get(ctx context.Context, shipmentID uint) (*models.Shipment, error) {
	var sh models.Shipment
	err := a.m.DB().WithContext(ctx).
		Preload("Cycles", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Cycles.Farmer").
		Preload("Cycles.SeedVariety").
		First(&sh, shipmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("shipment %d not found", shipmentID)
		}
		return nil, apperr.Storage("load shipment", err)
	}
	return &sh, nil
}
