package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/service"
	"github.com/maheshrc27/postscheduler/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) SavePost(c *fiber.Ctx) error {
	var in transfer.PostUpsert
	if err := c.BodyParser(&in); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	post, created, err := h.s.Save(c.Context(), GetOwnerID(c), &in)
	if err != nil {
		return errorResponse(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(transfer.NewPostView(post))
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), GetOwnerID(c),
		models.Status(c.Query("status")),
		models.OrderBy(c.Query("order")))
	if err != nil {
		return errorResponse(c, err)
	}

	views := make([]transfer.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, transfer.NewPostView(p))
	}
	return c.Status(fiber.StatusOK).JSON(views)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.s.Get(c.Context(), GetOwnerID(c), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(transfer.NewPostView(post))
}

// ListAttempts returns the per-platform publish outcomes of a post.
func (h *PostHandler) ListAttempts(c *fiber.Ctx) error {
	attempts, err := h.s.Attempts(c.Context(), GetOwnerID(c), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(attempts)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), GetOwnerID(c), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
