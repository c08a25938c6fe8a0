package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

type WorkspaceHandler struct {
	s service.WorkspaceService
}

func NewWorkspaceHandler(s service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{s: s}
}

func (h *WorkspaceHandler) Tree(c *fiber.Ctx) error {
	tree, err := h.s.Tree(c.Query("path"), c.QueryInt("depth", 0))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(tree)
}

func (h *WorkspaceHandler) File(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return errorResponse(c, &transfer.ValidationError{Field: "path", Message: "path is required"})
	}
	file, err := h.s.ReadFile(path)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(file)
}
