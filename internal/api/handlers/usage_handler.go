package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

type UsageHandler struct {
	s  service.UsageService
	gw service.GatewayService
}

func NewUsageHandler(s service.UsageService, gw service.GatewayService) *UsageHandler {
	return &UsageHandler{s: s, gw: gw}
}

func (h *UsageHandler) Ingest(c *fiber.Ctx) error {
	n, err := h.s.Ingest(c.Context(), c.Body())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"recorded": n})
}

func (h *UsageHandler) Summary(c *fiber.Ctx) error {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return errorResponse(c, &transfer.ValidationError{Field: "since", Message: "must be an RFC 3339 time"})
		}
		since = &t
	}

	summary, err := h.s.Summary(c.Context(), since)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// Sessions passes the query straight through to the gateway.
func (h *UsageHandler) Sessions(c *fiber.Ctx) error {
	query := url.Values{}
	for k, v := range c.Queries() {
		if k == "access_token" {
			continue
		}
		query.Set(k, v)
	}

	reply, err := h.gw.SessionUsage(c.Context(), query)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(reply)
}
