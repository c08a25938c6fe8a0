package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mission-control/configs"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// DashboardAuth guards the routes the dashboard calls.
func (m *AuthMiddleware) DashboardAuth() fiber.Handler {
	return BearerAuth("dashboard", m.cfg.DashboardToken)
}

// GatewayAuth guards the webhooks the orchestrator calls.
func (m *AuthMiddleware) GatewayAuth() fiber.Handler {
	return BearerAuth("gateway", m.cfg.Gateway.WebhookToken)
}

// BearerAuth accepts "Authorization: Bearer <token>", or an access_token query
// parameter for clients such as EventSource that cannot set headers. An empty
// expected token rejects every request.
func BearerAuth(realm, expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expected == "" {
			slog.Info("bearer token not configured", "realm", realm)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication is not configured",
			})
		}

		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Query("access_token")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid bearer token",
			})
		}
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
