// Package access decides whether a cycle belongs to an employee's seed
// varieties. The answer is informational: listings use it for emphasis and
// nothing filters or rejects on it.
package access

import (
	"context"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"

	"gorm.io/gorm"
)

type Policy struct {
	db *gorm.DB
}

func NewPolicy(db *gorm.DB) *Policy {
	return &Policy{db: db}
}

// Scope is the set of seed varieties assigned to one employee.
type Scope struct {
	EmployeeID uint
	varieties  map[uint]struct{}
}

func (s Scope) IsAssigned(seedVarietyID uint) bool {
	_, ok := s.varieties[seedVarietyID]
	return ok
}

func (s Scope) Len() int { return len(s.varieties) }

// ScopeFor loads the employee's assignments in one query so listings can tag
// every row without a lookup per row.
func (p *Policy) ScopeFor(ctx context.Context, employeeID uint) (Scope, error) {
	scope := Scope{EmployeeID: employeeID, varieties: map[uint]struct{}{}}
	if employeeID == 0 {
		return scope, nil
	}
	var ids []uint
	if err := p.db.WithContext(ctx).
		Model(&models.EmployeeAssignment{}).
		Where("employee_id = ?", employeeID).
		Pluck("seed_variety_id", &ids).Error; err != nil {
		return scope, apperr.Storage("load assignments", err)
	}
	for _, id := range ids {
		scope.varieties[id] = struct{}{}
	}
	return scope, nil
}

func (p *Policy) IsAssigned(ctx context.Context, employeeID, seedVarietyID uint) (bool, error) {
	var count int64
	if err := p.db.WithContext(ctx).
		Model(&models.EmployeeAssignment{}).
		Where("employee_id = ? AND seed_variety_id = ?", employeeID, seedVarietyID).
		Count(&count).Error; err != nil {
		return false, apperr.Storage("check assignment", err)
	}
	return count > 0, nil
}

func (p *Policy) Assign(ctx context.Context, employeeID, seedVarietyID uint) error {
	if employeeID == 0 || seedVarietyID == 0 {
		return apperr.Validation("employee_id and seed_variety_id are required")
	}
	ok, err := p.IsAssigned(ctx, employeeID, seedVarietyID)
	if err != nil || ok {
		return err
	}
	a := models.EmployeeAssignment{EmployeeID: employeeID, SeedVarietyID: seedVarietyID}
	if err := p.db.WithContext(ctx).Create(&a).Error; err != nil {
		return apperr.Storage("create assignment", err)
	}
	return nil
}

func (p *Policy) Unassign(ctx context.Context, employeeID, seedVarietyID uint) error {
	if err := p.db.WithContext(ctx).
		Where("employee_id = ? AND seed_variety_id = ?", employeeID, seedVarietyID).
		Delete(&models.EmployeeAssignment{}).Error; err != nil {
		return apperr.Storage("delete assignment", err)
	}
	return nil
}
