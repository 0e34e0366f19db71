package models

import "time"

const (
	AuditEntityCropCycle = "crop_cycle"
	AuditEntityShipment  = "shipment"
	AuditEntityEmployee  = "employee"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Who did it. UserID is 0 for system-driven cascades.
	UserID   uint   `gorm:"index" json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"`

	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	// Operation name, e.g. "mark_harvested", "allocate".
	Action string `gorm:"size:40;index" json:"action"`

	Description string `gorm:"size:255" json:"description"`

	// JSON snapshots; "null" when absent.
	BeforeData string `gorm:"type:text" json:"before_data"`
	AfterData  string `gorm:"type:text" json:"after_data"`
}
