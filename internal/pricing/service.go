// Package pricing runs the price negotiation with a farmer: any number of
// temporary proposals, then one verified purchase rate.
package pricing

import (
	"context"

	"seedprocure-backend/internal/cycle"
	"seedprocure-backend/internal/models"
)

type Service struct {
	m *cycle.Machine
}

func NewService(m *cycle.Machine) *Service {
	return &Service{m: m}
}

// SetTemporaryPrice records a proposal. It overwrites any earlier proposal and
// may be repeated until the rate is finalized.
func (s *Service) SetTemporaryPrice(ctx context.Context, cycleID uint, price float64, actorID uint) (*models.CropCycle, error) {
	if err := cycle.ValidatePrice("price", price); err != nil {
		return nil, err
	}
	return s.m.Apply(ctx, actorID, cycleID, cycle.OpSetTemporaryPrice, func(*models.CropCycle) (map[string]any, error) {
		return map[string]any{
			"temporary_price_per_man": price,
			"pricing_date":            s.m.Now(),
		}, nil
	})
}

// VerifyAndFinalizePrice fixes the purchase rate. Re-verifying a Priced cycle
// overwrites the rate; once weighed the rate is frozen.
func (s *Service) VerifyAndFinalizePrice(ctx context.Context, cycleID uint, finalPrice float64, actorID uint) (*models.CropCycle, error) {
	if err := cycle.ValidatePrice("final_price", finalPrice); err != nil {
		return nil, err
	}
	return s.m.Apply(ctx, actorID, cycleID, cycle.OpFinalizePrice, func(*models.CropCycle) (map[string]any, error) {
		return map[string]any{
			"purchase_rate": finalPrice,
			"pricing_date":  s.m.Now(),
		}, nil
	})
}
