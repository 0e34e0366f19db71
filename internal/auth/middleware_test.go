package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"seedprocure-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const secret = "middleware-test-secret-0123456789abcdef"

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.SendStatus(e.Code)
			}
			return c.SendStatus(http.StatusUnauthorized)
		},
	})
	app.Use(JWTMiddleware(secret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, err := ActorID(c)
		if err != nil {
			return err
		}
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})
	app.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, header string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestTokenRoundTrip(t *testing.T) {
	emp := &models.Employee{ID: 42, Email: "o@example.com", Role: models.RoleFieldOfficer}
	tok, err := GenerateToken(secret, time.Hour, emp)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseToken(secret, tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.EmployeeID != 42 || claims.Role != models.RoleFieldOfficer {
		t.Fatalf("claims = %+v", claims)
	}
	if _, err := ParseToken("some-other-secret-0123456789abcdef", tok); err == nil {
		t.Fatalf("token verified with the wrong secret")
	}
	expired, _ := GenerateToken(secret, -time.Minute, emp)
	if _, err := ParseToken(secret, expired); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := &JWTCustomClaims{EmployeeID: 1, Role: models.RoleAdmin}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(secret, tok); err == nil {
		t.Fatalf("HS512 token accepted")
	}
}

func TestJWTMiddleware(t *testing.T) {
	app := newApp()
	officer, _ := GenerateToken(secret, time.Hour, &models.Employee{ID: 7, Role: models.RoleFieldOfficer})
	admin, _ := GenerateToken(secret, time.Hour, &models.Employee{ID: 1, Role: models.RoleAdmin})

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/whoami", "", http.StatusUnauthorized},
		{"wrong scheme", "/whoami", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/whoami", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"officer", "/whoami", "Bearer " + officer, http.StatusOK},
		{"officer on admin route", "/admin", "Bearer " + officer, http.StatusForbidden},
		{"admin on admin route", "/admin", "bearer " + admin, http.StatusNoContent},
	}
	for _, tc := range cases {
		resp := call(t, app, tc.path, tc.header)
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, resp.StatusCode, tc.want)
		}
	}
}
