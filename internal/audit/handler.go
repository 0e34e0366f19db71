package audit

import (
	"seedprocure-backend/internal/httpx"
	"seedprocure-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const defaultLimit = 200

type AuditLogResponse struct {
	ID          uint   `json:"id"`
	CreatedAt   string `json:"created_at"`
	UserID      uint   `json:"user_id"`
	UserName    string `json:"user_name"`
	EntityType  string `json:"entity_type"`
	EntityID    uint   `json:"entity_id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	BeforeData  string `json:"before_data"`
	AfterData   string `json:"after_data"`
}

// GET /api/admin/audit-logs?entity_type=crop_cycle&entity_id=1&user_id=2&limit=50
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.AuditLog{})

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		for _, col := range []string{"entity_id", "user_id"} {
			id, ok, err := httpx.QueryID(c, col)
			if err != nil {
				return err
			}
			if ok {
				dbq = dbq.Where(col+" = ?", id)
			}
		}
		if action := c.Query("action"); action != "" {
			dbq = dbq.Where("action = ?", action)
		}

		limit := c.QueryInt("limit", defaultLimit)
		if limit <= 0 || limit > 1000 {
			limit = defaultLimit
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      log.UserID,
				UserName:    log.UserName,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				BeforeData:  log.BeforeData,
				AfterData:   log.AfterData,
			})
		}

		return c.JSON(resp)
	}
}
