package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

type PostHandler struct {
	s service.PostService
	p service.PublisherService
}

func NewPostHandler(s service.PostService, p service.PublisherService) *PostHandler {
	return &PostHandler{s: s, p: p}
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), c.Query("status"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	post, err := h.s.Get(c.Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// CreatePost is the authoring webhook; posts always start as drafts.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var req transfer.PostCreation
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	post, err := h.s.CreateDraft(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	var req transfer.PostUpdate
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	post, err := h.s.Update(c.Context(), id, &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) TransitionPost(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	var req transfer.PostTransition
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	post, err := h.s.Transition(c.Context(), id, &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	if err := h.s.Delete(c.Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) Attempts(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	attempts, err := h.s.Attempts(c.Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(attempts)
}

func (h *PostHandler) AttachMedia(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	file, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, &transfer.ValidationError{Field: "file", Message: "file is required"})
	}
	post, err := h.s.AttachMedia(c.Context(), id, file)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// PublishNow sends an approved or scheduled post immediately. A LinkedIn
// rejection comes back as 502 after the post has been marked failed.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	post, err := h.p.PublishNow(c.Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) PublishDue(c *fiber.Ctx) error {
	published, err := h.p.PublishDuePosts(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(transfer.PublishDueResult{Published: published})
}
