package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"seedprocure-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, apperr.ErrValidation) {
				return c.SendStatus(http.StatusBadRequest)
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	app.Get("/cycles/:id", func(c *fiber.Ctx) error {
		id, err := PathID(c, "id", "cycle id")
		if err != nil {
			return err
		}
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})
	app.Get("/logs", func(c *fiber.Ctx) error {
		id, ok, err := QueryID(c, "entity_id")
		if err != nil {
			return err
		}
		if !ok {
			return c.SendStatus(http.StatusNoContent)
		}
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})
	return app
}

func TestIDParsing(t *testing.T) {
	app := newApp()
	cases := []struct {
		path string
		want int
	}{
		{"/cycles/12", http.StatusOK},
		{"/cycles/12abc", http.StatusBadRequest},
		{"/cycles/0", http.StatusBadRequest},
		{"/cycles/-3", http.StatusBadRequest},
		{"/cycles/99999999999", http.StatusBadRequest},
		{"/logs", http.StatusNoContent},
		{"/logs?entity_id=7", http.StatusOK},
		{"/logs?entity_id=7x", http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil), -1)
		if err != nil {
			t.Fatalf("GET %s: %v", tc.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("GET %s: status = %d, want %d", tc.path, resp.StatusCode, tc.want)
		}
	}
}
