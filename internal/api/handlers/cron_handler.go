package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

type CronHandler struct {
	s service.CronService
}

func NewCronHandler(s service.CronService) *CronHandler {
	return &CronHandler{s: s}
}

func (h *CronHandler) Sync(c *fiber.Ctx) error {
	result, err := h.s.Sync(c.Context(), c.Body())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CronHandler) List(c *fiber.Ctx) error {
	jobs, err := h.s.List(c.Context(), c.Query("agent"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(jobs)
}

func (h *CronHandler) Action(c *fiber.Ctx) error {
	var req transfer.CronAction
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	reply, err := h.s.Action(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(reply)
}
