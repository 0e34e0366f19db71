package admin

import (
	"errors"
	"fmt"
	"strings"

	"seedprocure-backend/internal/access"
	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/audit"
	"seedprocure-backend/internal/auth"
	"seedprocure-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EmployeeResponse struct {
	ID        uint                `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Role      models.EmployeeRole `json:"role"`
	Varieties []uint              `json:"seed_variety_ids"`
	CreatedAt string              `json:"created_at"`
}

type CreateEmployeeRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Role     models.EmployeeRole `json:"role"` // defaults to field_officer
}

type AssignmentRequest struct {
	EmployeeID    uint `json:"employee_id"`
	SeedVarietyID uint `json:"seed_variety_id"`
}

// ----------------------------------------
// EMPLOYEES
// ----------------------------------------

// POST /api/admin/employees
func CreateEmployeeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		var body CreateEmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if strings.TrimSpace(string(body.Role)) == "" {
			body.Role = models.RoleFieldOfficer
		}

		emp, err := auth.CreateEmployee(db.WithContext(c.UserContext()), body.Name, body.Email, body.Password, body.Role)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			UserID:      actorID,
			EntityType:  models.AuditEntityEmployee,
			EntityID:    emp.ID,
			Action:      "create_employee",
			Description: fmt.Sprintf("employee %s (%s) created", emp.Email, emp.Role),
			After:       EmployeeResponse{ID: emp.ID, Name: emp.Name, Email: emp.Email, Role: emp.Role},
		})

		return c.Status(fiber.StatusCreated).JSON(EmployeeResponse{
			ID:        emp.ID,
			Name:      emp.Name,
			Email:     emp.Email,
			Role:      emp.Role,
			Varieties: []uint{},
			CreatedAt: emp.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GET /api/admin/employees
func ListEmployeesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.WithContext(c.UserContext())

		var emps []models.Employee
		if err := q.Order("name ASC, id ASC").Find(&emps).Error; err != nil {
			return apperr.Storage("list employees", err)
		}
		var assignments []models.EmployeeAssignment
		if err := q.Order("seed_variety_id ASC").Find(&assignments).Error; err != nil {
			return apperr.Storage("list assignments", err)
		}
		byEmployee := map[uint][]uint{}
		for _, a := range assignments {
			byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a.SeedVarietyID)
		}

		resp := make([]EmployeeResponse, 0, len(emps))
		for _, e := range emps {
			vs := byEmployee[e.ID]
			if vs == nil {
				vs = []uint{}
			}
			resp = append(resp, EmployeeResponse{
				ID:        e.ID,
				Name:      e.Name,
				Email:     e.Email,
				Role:      e.Role,
				Varieties: vs,
				CreatedAt: e.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}

// ----------------------------------------
// SEED VARIETY ASSIGNMENTS
// ----------------------------------------

// POST /api/admin/assignments
func AssignVarietyHandler(db *gorm.DB, policy *access.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		var body AssignmentRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if err := ensureExists(db, &models.Employee{}, body.EmployeeID, "employee"); err != nil {
			return err
		}
		if err := ensureExists(db, &models.SeedVariety{}, body.SeedVarietyID, "seed variety"); err != nil {
			return err
		}

		if err := policy.Assign(c.UserContext(), body.EmployeeID, body.SeedVarietyID); err != nil {
			return err
		}
		_ = audit.WriteLog(db, audit.LogOptions{
			UserID:      actorID,
			EntityType:  models.AuditEntityEmployee,
			EntityID:    body.EmployeeID,
			Action:      "assign_variety",
			Description: fmt.Sprintf("seed variety %d assigned", body.SeedVarietyID),
			After:       body,
		})
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
	}
}

// DELETE /api/admin/assignments
func UnassignVarietyHandler(db *gorm.DB, policy *access.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := auth.ActorID(c)
		if err != nil {
			return err
		}
		var body AssignmentRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if body.EmployeeID == 0 || body.SeedVarietyID == 0 {
			return apperr.Validation("employee_id and seed_variety_id are required")
		}

		if err := policy.Unassign(c.UserContext(), body.EmployeeID, body.SeedVarietyID); err != nil {
			return err
		}
		_ = audit.WriteLog(db, audit.LogOptions{
			UserID:      actorID,
			EntityType:  models.AuditEntityEmployee,
			EntityID:    body.EmployeeID,
			Action:      "unassign_variety",
			Description: fmt.Sprintf("seed variety %d unassigned", body.SeedVarietyID),
			Before:      body,
		})
		return c.JSON(fiber.Map{"success": true})
	}
}

func ensureExists(db *gorm.DB, model any, id uint, label string) error {
	if id == 0 {
		return apperr.Validation("%s id is required", label)
	}
	if err := db.Select("id").First(model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("%s %d not found", label, id)
		}
		return apperr.Storage("load "+label, err)
	}
	return nil
}
