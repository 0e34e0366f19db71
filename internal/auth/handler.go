package auth

import (
	"errors"
	"strings"
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterAdminHandler creates the first admin. Later calls are refused.
func RegisterAdminHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" || body.Name == "" {
			return apperr.Validation("name, email and password are required")
		}

		var count int64
		if err := db.Model(&models.Employee{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return apperr.Storage("count admins", err)
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an admin already exists")
		}

		emp, err := CreateEmployee(db, body.Name, body.Email, body.Password, models.RoleAdmin)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    emp.ID,
			"email": emp.Email,
			"role":  emp.Role,
		})
	}
}

func LoginHandler(db *gorm.DB, secret string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var emp models.Employee
		if err := db.Where("email = ?", body.Email).First(&emp).Error; err != nil {
			return apperr.Unauthorized("email or password is wrong")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(body.Password)); err != nil {
			return apperr.Unauthorized("email or password is wrong")
		}

		token, err := GenerateToken(secret, ttl, &emp)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"employee": fiber.Map{
				"id":    emp.ID,
				"name":  emp.Name,
				"email": emp.Email,
				"role":  emp.Role,
			},
		})
	}
}

func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := ActorID(c)
		if err != nil {
			return err
		}
		var emp models.Employee
		if err := db.First(&emp, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Unauthorized("employee no longer exists")
			}
			return apperr.Storage("load employee", err)
		}
		return c.JSON(fiber.Map{
			"employee_id": emp.ID,
			"name":        emp.Name,
			"email":       emp.Email,
			"role":        emp.Role,
		})
	}
}

// CreateEmployee hashes the password and stores a new employee.
func CreateEmployee(db *gorm.DB, name, email, password string, role models.EmployeeRole) (*models.Employee, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if strings.TrimSpace(name) == "" || email == "" || password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}
	switch role {
	case models.RoleAdmin, models.RoleFieldOfficer:
	default:
		return nil, apperr.Validation("unknown role %q", role)
	}

	var existing int64
	if err := db.Model(&models.Employee{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, apperr.Storage("check email", err)
	}
	if existing > 0 {
		return nil, apperr.Validation("email %s is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.New(apperr.KindStorage, "hash password", err)
	}

	emp := &models.Employee{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(emp).Error; err != nil {
		return nil, apperr.Storage("create employee", err)
	}
	return emp, nil
}
