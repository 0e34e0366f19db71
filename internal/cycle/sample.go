package cycle

import (
	"math"
	"strings"
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"
)

// SampleInput is one lab result entry.
type SampleInput struct {
	Moisture             *float64
	Purity               *float64
	Dust                 *float64
	ColorGrade           string
	NonSeed              string
	Remarks              string
	TemporaryPricePerMan *float64
}

func (in SampleInput) Validate() error {
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"moisture", in.Moisture},
		{"purity", in.Purity},
		{"dust", in.Dust},
	} {
		if f.v == nil {
			return apperr.Validation("%s is required", f.name)
		}
		if err := nonNegative(f.name, *f.v); err != nil {
			return err
		}
	}
	if strings.TrimSpace(in.ColorGrade) == "" {
		return apperr.Validation("color_grade is required")
	}
	if strings.TrimSpace(in.NonSeed) == "" {
		return apperr.Validation("non_seed is required")
	}
	if in.TemporaryPricePerMan != nil {
		if err := nonNegative("temp_price", *in.TemporaryPricePerMan); err != nil {
			return err
		}
	}
	return nil
}

// HasProposal reports whether the entry carries a usable temporary price.
func (in SampleInput) HasProposal() bool {
	return in.TemporaryPricePerMan != nil && *in.TemporaryPricePerMan > 0
}

// NextStatus is PriceProposed when a positive temporary price came with the
// sample, Sampled otherwise.
func (in SampleInput) NextStatus() models.CycleStatus {
	if in.HasProposal() {
		return models.CyclePriceProposed
	}
	return models.CycleSampled
}

func (in SampleInput) operation() Operation {
	if in.NextStatus() == models.CyclePriceProposed {
		return OpRecordSampleWithPrice
	}
	return OpRecordSample
}

func (in SampleInput) fields(now time.Time) map[string]any {
	f := map[string]any{
		"sampling_date":   now,
		"moisture":        *in.Moisture,
		"purity":          *in.Purity,
		"dust_percentage": *in.Dust,
		"color_grade":     strings.TrimSpace(in.ColorGrade),
		"non_seed":        strings.TrimSpace(in.NonSeed),
		"remarks":         strings.TrimSpace(in.Remarks),
	}
	if in.HasProposal() {
		f["temporary_price_per_man"] = *in.TemporaryPricePerMan
		f["pricing_date"] = now
	}
	return f
}

func nonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperr.Validation("%s must be a finite number", name)
	}
	if v < 0 {
		return apperr.Validation("%s must not be negative", name)
	}
	return nil
}

func positive(name string, v float64) error {
	if err := nonNegative(name, v); err != nil {
		return err
	}
	if v == 0 {
		return apperr.Validation("%s must be greater than zero", name)
	}
	return nil
}

// ValidatePrice checks a per-man price offered for negotiation or as final rate.
func ValidatePrice(name string, v float64) error {
	return positive(name, v)
}
