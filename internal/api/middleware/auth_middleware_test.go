package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mission-control/configs"
)

func newApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/x", h, func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestBearerAuth(t *testing.T) {
	app := newApp(BearerAuth("dashboard", "s3cret"))

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"missing", "/x", "", fiber.StatusUnauthorized},
		{"wrong", "/x", "Bearer nope", fiber.StatusUnauthorized},
		{"wrong scheme", "/x", "Basic s3cret", fiber.StatusUnauthorized},
		{"ok", "/x", "Bearer s3cret", fiber.StatusOK},
		{"ok lowercase scheme", "/x", "bearer s3cret", fiber.StatusOK},
		{"query token", "/x?access_token=s3cret", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestUnconfiguredTokenRejects(t *testing.T) {
	m := NewAuthMiddleware(config.Config{})
	for _, h := range []fiber.Handler{m.DashboardAuth(), m.GatewayAuth()} {
		req := httptest.NewRequest("GET", "/x", nil)
		req.Header.Set("Authorization", "Bearer ")
		resp, err := newApp(h).Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
	}
}
