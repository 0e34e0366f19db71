package models

import "time"

// Village, Farmer and SeedVariety are reference rows maintained outside this
// service. They exist here as foreign-key targets and listing labels.
type Village struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Taluka    string    `gorm:"size:100" json:"taluka"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Farmer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VillageID *uint     `gorm:"index" json:"village_id"`
	Village   *Village  `json:"-"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:30" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SeedVariety struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Crop      string    `gorm:"size:50" json:"crop"` // e.g. cotton, groundnut
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
