// Package dashboard computes the procurement overview for one crop year.
package dashboard

import (
	"context"
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"

	"gorm.io/gorm"
)

// StuckAfter is how long a cycle may sit in Priced before it is flagged.
const StuckAfter = 12 * 24 * time.Hour

type Pipeline struct {
	Harvested int `json:"harvested"`
	Sampled   int `json:"sampled"`
	Priced    int `json:"priced"`
	Weighed   int `json:"weighed"`
}

type DueToday struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
	Bags   int     `json:"bags"`
}

type Finance struct {
	PendingPayments int      `json:"pending_payments"`
	DueToday        DueToday `json:"due_today"`
}

type Alerts struct {
	StuckCycles int `json:"stuck_cycles"`
	ReadyToLoad int `json:"ready_to_load"`
}

type Stats struct {
	Year     int      `json:"year"`
	Pipeline Pipeline `json:"pipeline"`
	Finance  Finance  `json:"finance"`
	Alerts   Alerts   `json:"alerts"`
}

// totals is the single aggregate row behind Stats.
type totals struct {
	Harvested       int64
	Sampled         int64
	Priced          int64
	Weighed         int64
	Stuck           int64
	PendingPayments int64
	DueCount        int64
	DueAmount       float64
	DueBags         int64
}

// aggregateSQL counts every dashboard figure in one pass over the year's
// cycles. Null amounts count as zero.
const aggregateSQL = `
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS harvested,
	COALESCE(SUM(CASE WHEN status IN (?, ?) THEN 1 ELSE 0 END), 0) AS sampled,
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS priced,
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS weighed,
	COALESCE(SUM(CASE WHEN status = ? AND pricing_date IS NOT NULL AND pricing_date <= ? THEN 1 ELSE 0 END), 0) AS stuck,
	COALESCE(SUM(CASE WHEN status IN (?, ?, ?, ?) AND (is_farmer_paid IS NULL OR is_farmer_paid = ?) THEN 1 ELSE 0 END), 0) AS pending_payments,
	COALESCE(SUM(CASE WHEN cheque_due_date >= ? AND cheque_due_date < ? THEN 1 ELSE 0 END), 0) AS due_count,
	COALESCE(SUM(CASE WHEN cheque_due_date >= ? AND cheque_due_date < ? THEN COALESCE(final_payment, 0) ELSE 0 END), 0) AS due_amount,
	COALESCE(SUM(CASE WHEN cheque_due_date >= ? AND cheque_due_date < ? THEN quantity_in_bags ELSE 0 END), 0) AS due_bags`

func (t totals) stats(year int) Stats {
	return Stats{
		Year: year,
		Pipeline: Pipeline{
			Harvested: int(t.Harvested),
			Sampled:   int(t.Sampled),
			Priced:    int(t.Priced),
			Weighed:   int(t.Weighed),
		},
		Finance: Finance{
			PendingPayments: int(t.PendingPayments),
			DueToday: DueToday{
				Count:  int(t.DueCount),
				Amount: t.DueAmount,
				Bags:   int(t.DueBags),
			},
		},
		Alerts: Alerts{
			StuckCycles: int(t.Stuck),
			// every weighed cycle is waiting for a truck
			ReadyToLoad: int(t.Weighed),
		},
	}
}

type Aggregator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	cp := *a
	cp.now = now
	return &cp
}

// Stats computes the overview with one aggregate query. A cycle is stuck when
// it has been Priced for StuckAfter or longer; "today" is the calendar day of
// the clock's now.
func (a *Aggregator) Stats(ctx context.Context, year int) (Stats, error) {
	if year <= 0 {
		return Stats{}, apperr.Validation("year is required")
	}
	now := a.now()
	stuckBefore := now.Add(-StuckAfter)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var t totals
	if err := a.db.WithContext(ctx).
		Model(&models.CropCycle{}).
		Select(aggregateSQL,
			models.CycleHarvested,
			models.CycleSampled, models.CyclePriceProposed,
			models.CyclePriced,
			models.CycleWeighed,
			models.CyclePriced, stuckBefore,
			models.CycleWeighed, models.CycleLoaded, models.CycleDispatched, models.CycleCompleted, false,
			dayStart, dayEnd,
			dayStart, dayEnd,
			dayStart, dayEnd,
		).
		Where("crop_cycle_year = ?", year).
		Scan(&t).Error; err != nil {
		return Stats{}, apperr.Storage("aggregate dashboard", err)
	}
	return t.stats(year), nil
}
