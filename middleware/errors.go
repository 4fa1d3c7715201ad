package middleware

import (
	"errors"
	"log"

	"Chronos/AppErrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error as {"message": ...}. Internal failures
// are logged and answered with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
	}

	var appErr *AppErrors.Error
	if !errors.As(err, &appErr) || appErr.Kind == AppErrors.KindInternal {
		log.Printf("Server error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}

	body := fiber.Map{}
	for k, v := range appErr.Data {
		body[k] = v
	}
	body["message"] = appErr.Message
	return c.Status(AppErrors.HTTPStatus(appErr.Kind)).JSON(body)
}
