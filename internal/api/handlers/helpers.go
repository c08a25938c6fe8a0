package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

// parseBody decodes the JSON body into v and runs its validation.
func parseBody(c *fiber.Ctx, v transfer.Validator) error {
	if len(c.Body()) == 0 {
		return &transfer.ValidationError{Field: "body", Message: "request body is required"}
	}
	if err := c.BodyParser(v); err != nil {
		return &transfer.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return v.Validate()
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, &transfer.ValidationError{Field: name, Message: "must be a UUID"}
	}
	return id, nil
}

// errorResponse maps service errors onto status codes.
func errorResponse(c *fiber.Ctx, err error) error {
	var ve *transfer.ValidationError
	var ge *service.GatewayError
	var pf *service.PublishFailure

	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   ve.Message,
			"details": fiber.Map{ve.Field: ve.Message},
		})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidTransition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPublishInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &pf):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": pf.Message})
	case errors.As(err, &ge):
		if json.Valid([]byte(ge.Body)) {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		}
		return c.Status(ge.Status).SendString(ge.Body)
	case errors.Is(err, service.ErrGatewayNotConfigured), errors.Is(err, service.ErrMediaNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error", "details": err.Error()})
	}
}
