package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mission-control/configs"
	"github.com/maheshrc27/mission-control/internal/service"
)

type LinkedInAuthHandler struct {
	s   service.LinkedInService
	cfg config.Config
}

func NewLinkedInAuthHandler(cfg config.Config, s service.LinkedInService) *LinkedInAuthHandler {
	return &LinkedInAuthHandler{s: s, cfg: cfg}
}

func (h *LinkedInAuthHandler) Connect(c *fiber.Ctx) error {
	authURL, err := h.s.AuthURL()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

func (h *LinkedInAuthHandler) Callback(c *fiber.Ctx) error {
	providerErr := c.Query("error")
	if providerErr == "" {
		providerErr = c.Query("error_description")
	}

	reason := h.s.Callback(c.Context(), c.Query("code"), c.Query("state"), providerErr)

	q := url.Values{}
	if reason == "" {
		q.Set("status", "connected")
	} else {
		q.Set("status", "error")
		q.Set("reason", reason)
	}
	return c.Redirect(h.cfg.FrontendURL+"/linkedin?"+q.Encode(), fiber.StatusTemporaryRedirect)
}

func (h *LinkedInAuthHandler) Status(c *fiber.Ctx) error {
	status, err := h.s.Status(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *LinkedInAuthHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.s.Disconnect(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
