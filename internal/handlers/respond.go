package handlers

import (
	"catalog/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-hclog"
)

// respondError renders err with the status of its kind. Internal causes are
// logged, never sent to the client.
func respondError(c *fiber.Ctx, logger hclog.Logger, err error) error {
	kind := apperrors.KindOf(err)
	if kind == apperrors.Internal {
		logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(kind.Status()).JSON(fiber.Map{
		"message": apperrors.MessageOf(err),
		"error":   kind.String(),
	})
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
