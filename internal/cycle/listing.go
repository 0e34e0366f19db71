package cycle

import (
	"context"
	"time"

	"seedprocure-backend/internal/access"
	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"
)

// PendingSample is one row of the sample work queue.
type PendingSample struct {
	CycleID               uint                    `json:"cycle_id"`
	Status                models.CycleStatus      `json:"status"`
	FarmerID              uint                    `json:"farmer_id"`
	FarmerName            string                  `json:"farmer_name"`
	SeedVarietyID         uint                    `json:"seed_variety_id"`
	SeedVarietyName       string                  `json:"seed_variety_name"`
	HarvestingDate        *time.Time              `json:"harvesting_date"`
	GoodsCollectionMethod models.CollectionMethod `json:"goods_collection_method"`
	SampleCollectionDate  *time.Time              `json:"sample_collection_date"`
	IsAssigned            bool                    `json:"is_assigned"`
}

type Lister struct {
	m      *Machine
	policy *access.Policy
}

func NewLister(m *Machine, policy *access.Policy) *Lister {
	return &Lister{m: m, policy: policy}
}

// PendingSamples lists harvested cycles waiting for a sample or a lab entry,
// oldest harvest first. IsAssigned marks the caller's own varieties; every
// cycle is returned regardless.
func (l *Lister) PendingSamples(ctx context.Context, actorID uint, year int) ([]PendingSample, error) {
	scope, err := l.policy.ScopeFor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	q := l.m.DB().WithContext(ctx).
		Preload("Farmer").
		Preload("SeedVariety").
		Where("status IN ?", []models.CycleStatus{models.CycleHarvested, models.CycleSampleCollected})
	if year > 0 {
		q = q.Where("crop_cycle_year = ?", year)
	}

	var cycles []models.CropCycle
	if err := q.Order("harvesting_date ASC, id ASC").Find(&cycles).Error; err != nil {
		return nil, apperr.Storage("list pending samples", err)
	}

	out := make([]PendingSample, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, PendingSample{
			CycleID:               c.ID,
			Status:                c.Status,
			FarmerID:              c.FarmerID,
			FarmerName:            c.Farmer.Name,
			SeedVarietyID:         c.SeedVarietyID,
			SeedVarietyName:       c.SeedVariety.Name,
			HarvestingDate:        c.HarvestingDate,
			GoodsCollectionMethod: c.GoodsCollectionMethod,
			SampleCollectionDate:  c.SampleCollectionDate,
			IsAssigned:            scope.IsAssigned(c.SeedVarietyID),
		})
	}
	return out, nil
}
