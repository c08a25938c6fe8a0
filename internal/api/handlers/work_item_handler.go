package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

type WorkItemHandler struct {
	tasks        service.TaskService
	quests       service.QuestService
	improvements service.ImprovementService
}

func NewWorkItemHandler(tasks service.TaskService, quests service.QuestService, improvements service.ImprovementService) *WorkItemHandler {
	return &WorkItemHandler{tasks: tasks, quests: quests, improvements: improvements}
}

func (h *WorkItemHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.List(c.Context(), c.Query("status"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(tasks)
}

func (h *WorkItemHandler) CreateTask(c *fiber.Ctx) error {
	var req transfer.TaskCreation
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	task, err := h.tasks.Create(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *WorkItemHandler) UpdateTaskStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	var req transfer.StatusUpdate
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	task, err := h.tasks.UpdateStatus(c.Context(), id, &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(task)
}

func (h *WorkItemHandler) ListQuests(c *fiber.Ctx) error {
	quests, err := h.quests.List(c.Context(), c.Query("status"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(quests)
}

func (h *WorkItemHandler) CreateQuest(c *fiber.Ctx) error {
	var req transfer.QuestCreation
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	quest, err := h.quests.Create(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(quest)
}

func (h *WorkItemHandler) UpdateQuestStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	var req transfer.StatusUpdate
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	quest, err := h.quests.UpdateStatus(c.Context(), id, &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(quest)
}

func (h *WorkItemHandler) ListImprovements(c *fiber.Ctx) error {
	imps, err := h.improvements.List(c.Context(), c.Query("status"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(imps)
}

func (h *WorkItemHandler) CreateImprovement(c *fiber.Ctx) error {
	var req transfer.ImprovementCreation
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	imp, err := h.improvements.Create(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(imp)
}

func (h *WorkItemHandler) UpdateImprovementStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	var req transfer.StatusUpdate
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	imp, err := h.improvements.UpdateStatus(c.Context(), id, &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(imp)
}
