// Package response writes service results and domain errors as JSON.
package response

import (
	stderrors "errors"

	apperrors "dompet/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, status int, body interface{}) error {
	return c.Status(status).JSON(body)
}

// Error maps a domain error to its HTTP status. Anything that is not a
// domain error is reported as an opaque 500.
func Error(c *fiber.Ctx, err error) error {
	var de *apperrors.DomainError
	if !stderrors.As(err, &de) {
		return ServerError(c, "internal server error")
	}

	body := fiber.Map{
		"status":  "error",
		"code":    de.Code,
		"message": de.Message,
	}
	if len(de.Fields) > 0 {
		body["fields"] = de.Fields
	}
	return c.Status(StatusOf(de.Kind)).JSON(body)
}

func StatusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return fiber.StatusBadRequest
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindInsufficientBalance:
		return fiber.StatusUnprocessableEntity
	case apperrors.KindDownstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"code":    apperrors.CodeInvalidRequest,
		"message": message,
	})
}

func ServerError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
