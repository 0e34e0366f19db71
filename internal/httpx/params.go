// Package httpx holds request parsing shared by the HTTP handlers.
package httpx

import (
	"strconv"

	"seedprocure-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// PathID reads a positive integer route parameter. The whole segment must be
// digits; "12abc" is rejected.
func PathID(c *fiber.Ctx, name, label string) (uint, error) {
	id, ok := parseID(c.Params(name))
	if !ok {
		return 0, apperr.Validation("%s is invalid", label)
	}
	return id, nil
}

// QueryID reads an optional positive integer query value. ok is false when the
// parameter is absent.
func QueryID(c *fiber.Ctx, name string) (id uint, ok bool, err error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	id, valid := parseID(raw)
	if !valid {
		return 0, false, apperr.Validation("%s is invalid", name)
	}
	return id, true, nil
}
