package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

type AgentHandler struct {
	s  service.AgentService
	gw service.GatewayService
}

func NewAgentHandler(s service.AgentService, gw service.GatewayService) *AgentHandler {
	return &AgentHandler{s: s, gw: gw}
}

func (h *AgentHandler) Heartbeat(c *fiber.Ctx) error {
	var req transfer.AgentHeartbeat
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	agent, err := h.s.Heartbeat(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(agent)
}

func (h *AgentHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.s.List(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(agents)
}

func (h *AgentHandler) GetAgent(c *fiber.Ctx) error {
	agent, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(agent)
}

// SendMessage relays a dashboard message into an agent session.
func (h *AgentHandler) SendMessage(c *fiber.Ctx) error {
	var req transfer.SessionMessage
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	reply, err := h.gw.SendMessage(c.Context(), c.Params("key"), req.Message)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(reply)
}
