// Package report builds spreadsheet exports for the finance desk.
package report

import (
	"bytes"
	"context"
	"fmt"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const pendingSheet = "Pending Payments"

var pendingHeader = []any{
	"Cycle", "Farmer", "Seed Variety", "Lot No", "Status",
	"Bags", "Purchase Rate", "Final Payment", "Cheque Due",
}

// unpaidStatuses are the stages where weighed goods are owed to the farmer.
var unpaidStatuses = []models.CycleStatus{
	models.CycleWeighed,
	models.CycleLoaded,
	models.CycleDispatched,
	models.CycleCompleted,
}

type Exporter struct {
	db *gorm.DB
}

func NewExporter(db *gorm.DB) *Exporter {
	return &Exporter{db: db}
}

// PendingPayments lists the year's unpaid cycles, earliest cheque first.
func (e *Exporter) PendingPayments(ctx context.Context, year int) ([]models.CropCycle, error) {
	var cycles []models.CropCycle
	err := e.db.WithContext(ctx).
		Preload("Farmer").
		Preload("SeedVariety").
		Where("crop_cycle_year = ?", year).
		Where("status IN ?", unpaidStatuses).
		Where("is_farmer_paid IS NULL OR is_farmer_paid = ?", false).
		Order("cheque_due_date IS NULL, cheque_due_date ASC, id ASC").
		Find(&cycles).Error
	if err != nil {
		return nil, apperr.Storage("list pending payments", err)
	}
	return cycles, nil
}

// PendingPaymentsWorkbook renders PendingPayments as an xlsx file with a
// totals row at the bottom.
func (e *Exporter) PendingPaymentsWorkbook(ctx context.Context, year int) (*bytes.Buffer, error) {
	cycles, err := e.PendingPayments(ctx, year)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", pendingSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(pendingSheet, "A1", &pendingHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	var (
		totalBags    int
		totalPayment float64
	)
	for i, c := range cycles {
		row := []any{
			c.ID,
			c.Farmer.Name,
			c.SeedVariety.Name,
			c.LotNo,
			string(c.Status),
			c.QuantityInBags,
			floatOrBlank(c.PurchaseRate),
			floatOrBlank(c.FinalPayment),
			"",
		}
		if c.ChequeDueDate != nil {
			row[8] = c.ChequeDueDate.Format("2006-01-02")
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(pendingSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
		totalBags += c.QuantityInBags
		if c.FinalPayment != nil {
			totalPayment += *c.FinalPayment
		}
	}

	totals := []any{"TOTAL", "", "", "", "", totalBags, "", totalPayment, ""}
	cell, _ := excelize.CoordinatesToCellName(1, len(cycles)+2)
	if err := f.SetSheetRow(pendingSheet, cell, &totals); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf, nil
}

func floatOrBlank(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
