package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postscheduler/internal/api/middleware"
	"github.com/maheshrc27/postscheduler/internal/models"
)

func GetOwnerID(c *fiber.Ctx) string {
	ownerID, _ := c.Locals(middleware.OwnerIDKey).(string)
	return ownerID
}

// errorResponse maps service errors to a status code and an error body.
func errorResponse(c *fiber.Ctx, err error) error {
	var validationErr *models.ValidationError
	status := fiber.StatusInternalServerError
	message := "Something went wrong"

	switch {
	case errors.As(err, &validationErr):
		status, message = fiber.StatusBadRequest, validationErr.Error()
	case errors.Is(err, models.ErrNotFound):
		status, message = fiber.StatusNotFound, "Post not found"
	case errors.Is(err, models.ErrNotConnected):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidTransition):
		status, message = fiber.StatusConflict, err.Error()
	default:
		slog.Error(err.Error(), "path", c.Path())
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
