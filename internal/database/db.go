package database

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"seedprocure-backend/internal/config"
	"seedprocure-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured store. The handle is passed to each
// component explicitly; there is no package-level connection.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return open(cfg, os.Stdout)
}

// newGormLogger reports slow queries and failures. Lookups that find nothing
// are ordinary NotFound paths and are not logged.
func newGormLogger(w io.Writer) gormlogger.Interface {
	return gormlogger.New(log.New(w, "\r\n", log.LstdFlags), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func open(cfg *config.Config, w io.Writer) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		dialector = postgres.Open(cfg.DatabaseDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(w),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DatabaseDriver, err)
	}

	if cfg.DatabaseDriver == "sqlite" {
		// sqlite allows one writer; a single connection turns lock errors into queueing.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Village{},
		&models.Farmer{},
		&models.SeedVariety{},
		&models.Employee{},
		&models.EmployeeAssignment{},
		&models.Shipment{},
		&models.CropCycle{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
