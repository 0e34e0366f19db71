package cycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"

	"gorm.io/gorm"
)

// Service holds the field-side transitions: harvest, sample receipt, lab
// entry, weighing and farmer payment.
type Service struct {
	m *Machine
}

func NewService(m *Machine) *Service {
	return &Service{m: m}
}

func (s *Service) MarkHarvested(ctx context.Context, cycleID uint, method models.CollectionMethod, actorID uint) (*models.CropCycle, error) {
	if actorID == 0 {
		s.m.Observe(OpMarkHarvested.Name, cycleID, actorID, apperr.ErrUnauthorized)
		return nil, apperr.Unauthorized("mark_harvested requires an authenticated employee")
	}
	method = models.CollectionMethod(strings.TrimSpace(string(method)))
	switch method {
	case models.CollectionPoint, models.CollectionYard:
	default:
		return nil, apperr.Validation("goods_collection_method must be %q or %q", models.CollectionPoint, models.CollectionYard)
	}

	return s.m.Apply(ctx, actorID, cycleID, OpMarkHarvested, func(*models.CropCycle) (map[string]any, error) {
		return map[string]any{
			"harvesting_date":         s.m.Now(),
			"goods_collection_method": method,
			"harvested_by":            actorID,
		}, nil
	})
}

func (s *Service) MarkSampleReceived(ctx context.Context, cycleID, actorID uint) (*models.CropCycle, error) {
	return s.m.Apply(ctx, actorID, cycleID, OpMarkSampleReceived, func(*models.CropCycle) (map[string]any, error) {
		return map[string]any{
			"sample_collection_date": s.m.Now(),
			"sampled_by":             actorID,
		}, nil
	})
}

// RecordSample writes the lab result and moves the cycle to Sampled, or to
// PriceProposed when the entry carries a positive temporary price.
func (s *Service) RecordSample(ctx context.Context, cycleID uint, in SampleInput, actorID uint) (*models.CropCycle, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.m.Apply(ctx, actorID, cycleID, in.operation(), func(*models.CropCycle) (map[string]any, error) {
		return in.fields(s.m.Now()), nil
	})
}

type WeighingInput struct {
	QuantityInBags int
	LotNo          string
}

// RecordWeighing moves a priced cycle to Weighed. The lot number defaults to
// <year>-<cycle id>.
func (s *Service) RecordWeighing(ctx context.Context, cycleID uint, in WeighingInput, actorID uint) (*models.CropCycle, error) {
	if in.QuantityInBags <= 0 {
		return nil, apperr.Validation("quantity_in_bags must be greater than zero")
	}
	return s.m.Apply(ctx, actorID, cycleID, OpRecordWeighing, func(cur *models.CropCycle) (map[string]any, error) {
		lot := strings.TrimSpace(in.LotNo)
		if lot == "" {
			lot = fmt.Sprintf("%d-%05d", cur.CropCycleYear, cur.ID)
		}
		return map[string]any{
			"quantity_in_bags": in.QuantityInBags,
			"lot_no":           lot,
			"weighing_date":    s.m.Now(),
			"weighed_by":       actorID,
		}, nil
	})
}

// SchedulePayment records the final amount owed and the cheque due date.
func (s *Service) SchedulePayment(ctx context.Context, cycleID uint, finalPayment float64, chequeDue time.Time, actorID uint) (*models.CropCycle, error) {
	if err := nonNegative("final_payment", finalPayment); err != nil {
		return nil, err
	}
	if chequeDue.IsZero() {
		return nil, apperr.Validation("cheque_due_date is required")
	}
	due := time.Date(chequeDue.Year(), chequeDue.Month(), chequeDue.Day(), 0, 0, 0, 0, time.UTC)
	return s.m.Apply(ctx, actorID, cycleID, OpSchedulePayment, func(*models.CropCycle) (map[string]any, error) {
		return map[string]any{
			"final_payment":   finalPayment,
			"cheque_due_date": due,
		}, nil
	})
}

// MarkFarmerPaid settles a cycle. A dispatched cycle completes in the same
// transaction.
func (s *Service) MarkFarmerPaid(ctx context.Context, cycleID, actorID uint) (*models.CropCycle, error) {
	var out *models.CropCycle
	err := s.m.InTx(ctx, func(tx *gorm.DB) error {
		cur, err := LoadTx(tx, cycleID)
		if err != nil {
			return err
		}
		if cur.IsFarmerPaid != nil && *cur.IsFarmerPaid {
			return apperr.InvalidTransition("mark_farmer_paid: cycle %d is already paid", cycleID)
		}
		op := OpMarkFarmerPaid
		if cur.Status == models.CycleDispatched {
			op = OpSettlePayment
		}
		out, err = s.m.ApplyTx(tx, actorID, cycleID, op, func(*models.CropCycle) (map[string]any, error) {
			return map[string]any{"is_farmer_paid": true}, nil
		})
		return err
	})
	s.m.Observe(OpMarkFarmerPaid.Name, cycleID, actorID, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, cycleID uint) (*models.CropCycle, error) {
	return s.m.Load(ctx, cycleID)
}
