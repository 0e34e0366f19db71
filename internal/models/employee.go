package models

import "time"

type EmployeeRole string

const (
	RoleAdmin        EmployeeRole = "admin"
	RoleFieldOfficer EmployeeRole = "field_officer"
)

type Employee struct {
	ID           uint         `gorm:"primaryKey"`
	Name         string       `gorm:"size:100;not null"`
	Email        string       `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string       `gorm:"size:255;not null"`
	Role         EmployeeRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmployeeAssignment links an employee to a seed variety they look after.
// Used for emphasis in listings only; it never restricts access to a cycle.
type EmployeeAssignment struct {
	ID            uint `gorm:"primaryKey"`
	EmployeeID    uint `gorm:"uniqueIndex:idx_employee_variety;not null"`
	Employee      Employee
	SeedVarietyID uint `gorm:"uniqueIndex:idx_employee_variety;not null"`
	SeedVariety   SeedVariety
	CreatedAt     time.Time
}
