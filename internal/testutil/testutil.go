package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"seedprocure-backend/internal/config"
	"seedprocure-backend/internal/database"
	"seedprocure-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const JWTSecret = "test-secret-0123456789abcdef-0123456789"

var varietySeq atomic.Int64

// NewDB opens a fresh file-backed sqlite database with the schema migrated.
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	cfg := &config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    filepath.Join(tb.TempDir(), "seedprocure.db"),
	}
	db, err := database.Open(cfg)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Clock returns a fixed-time now function.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func SeedFarmer(tb testing.TB, db *gorm.DB, name string) *models.Farmer {
	tb.Helper()
	f := &models.Farmer{Name: name}
	if err := db.Create(f).Error; err != nil {
		tb.Fatalf("seed farmer: %v", err)
	}
	return f
}

func SeedVariety(tb testing.TB, db *gorm.DB, name string) *models.SeedVariety {
	tb.Helper()
	v := &models.SeedVariety{Name: name, Crop: "cotton"}
	if err := db.Create(v).Error; err != nil {
		tb.Fatalf("seed variety: %v", err)
	}
	return v
}

func SeedEmployee(tb testing.TB, db *gorm.DB, email string, role models.EmployeeRole, password string) *models.Employee {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	e := &models.Employee{Name: "Emp " + email, Email: email, PasswordHash: string(hash), Role: role}
	if err := db.Create(e).Error; err != nil {
		tb.Fatalf("seed employee: %v", err)
	}
	return e
}

func SeedAssignment(tb testing.TB, db *gorm.DB, employeeID, varietyID uint) {
	tb.Helper()
	a := &models.EmployeeAssignment{EmployeeID: employeeID, SeedVarietyID: varietyID}
	if err := db.Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
}

// CycleOption tweaks a cycle before it is inserted.
type CycleOption func(*models.CropCycle)

func WithBags(n int) CycleOption {
	return func(c *models.CropCycle) { c.QuantityInBags = n }
}

func WithYear(y int) CycleOption {
	return func(c *models.CropCycle) { c.CropCycleYear = y }
}

func WithVariety(id uint) CycleOption {
	return func(c *models.CropCycle) { c.SeedVarietyID = id }
}

func WithPricingDate(t time.Time) CycleOption {
	return func(c *models.CropCycle) { c.PricingDate = &t }
}

func WithHarvestingDate(t time.Time) CycleOption {
	return func(c *models.CropCycle) { c.HarvestingDate = &t }
}

func WithPaid(paid bool) CycleOption {
	return func(c *models.CropCycle) { c.IsFarmerPaid = &paid }
}

func WithPayment(amount float64, due time.Time) CycleOption {
	return func(c *models.CropCycle) {
		c.FinalPayment = &amount
		c.ChequeDueDate = &due
	}
}

func WithChequeDue(due time.Time) CycleOption {
	return func(c *models.CropCycle) { c.ChequeDueDate = &due }
}

func WithShipment(id uint) CycleOption {
	return func(c *models.CropCycle) { c.ShipmentID = &id }
}

// SeedCycle inserts a cycle in the given status, creating its farmer and
// variety unless WithVariety is passed.
func SeedCycle(tb testing.TB, db *gorm.DB, status models.CycleStatus, opts ...CycleOption) *models.CropCycle {
	tb.Helper()
	farmer := SeedFarmer(tb, db, "farmer")
	c := &models.CropCycle{
		FarmerID:      farmer.ID,
		Status:        status,
		CropCycleYear: 2025,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.SeedVarietyID == 0 {
		v := &models.SeedVariety{Name: fmt.Sprintf("variety-%d", varietySeq.Add(1)), Crop: "cotton"}
		if err := db.Create(v).Error; err != nil {
			tb.Fatalf("seed variety: %v", err)
		}
		c.SeedVarietyID = v.ID
	}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed cycle: %v", err)
	}
	return c
}

func SeedShipment(tb testing.TB, db *gorm.DB, capacity, total int, status models.ShipmentStatus) *models.Shipment {
	tb.Helper()
	s := &models.Shipment{
		VehicleNumber:     "GJ-01-AB-1234",
		DriverName:        "driver",
		TargetBagCapacity: capacity,
		TotalBags:         total,
		Status:            status,
		CreationDate:      time.Now().UTC(),
	}
	if err := db.Create(s).Error; err != nil {
		tb.Fatalf("seed shipment: %v", err)
	}
	return s
}

func ReloadCycle(tb testing.TB, db *gorm.DB, id uint) *models.CropCycle {
	tb.Helper()
	var c models.CropCycle
	if err := db.First(&c, id).Error; err != nil {
		tb.Fatalf("reload cycle %d: %v", id, err)
	}
	return &c
}

func ReloadShipment(tb testing.TB, db *gorm.DB, id uint) *models.Shipment {
	tb.Helper()
	var s models.Shipment
	if err := db.First(&s, id).Error; err != nil {
		tb.Fatalf("reload shipment %d: %v", id, err)
	}
	return &s
}
