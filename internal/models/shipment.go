package models

import "time"

type ShipmentStatus string

const (
	ShipmentLoading    ShipmentStatus = "loading"
	ShipmentLoaded     ShipmentStatus = "loaded"
	ShipmentDispatched ShipmentStatus = "dispatched"
)

// Shipment: one outbound vehicle load. TotalBags never exceeds TargetBagCapacity.
type Shipment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	VehicleNumber     string         `gorm:"size:30;not null" json:"vehicle_number"`
	DriverName        string         `gorm:"size:100;not null" json:"driver_name"`
	TargetBagCapacity int            `gorm:"not null" json:"target_bag_capacity"`
	TotalBags         int            `gorm:"not null;default:0" json:"total_bags"`
	Status            ShipmentStatus `gorm:"size:20;index;not null" json:"status"`
	CreationDate      time.Time      `gorm:"index;not null" json:"creation_date"`
	CreatedBy         uint           `json:"created_by"`
	LoadedAt          *time.Time     `json:"loaded_at"`
	DispatchedAt      *time.Time     `json:"dispatched_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	Cycles []CropCycle `gorm:"foreignKey:ShipmentID" json:"-"`
}

func (s Shipment) RemainingBags() int {
	return s.TargetBagCapacity - s.TotalBags
}
