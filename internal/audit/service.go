package audit

import (
	"encoding/json"
	"fmt"

	"seedprocure-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      string
	Description string
	Before      any
	After       any
}

// WriteLog stores one audit row through db. Pass the transaction handle so the
// row commits or rolls back with the change it describes.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	// "null" rather than "" so the column always holds valid JSON
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	if opts.UserName == "" && opts.UserID != 0 {
		var emp models.Employee
		if err := db.Select("name").First(&emp, opts.UserID).Error; err == nil {
			opts.UserName = emp.Name
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
