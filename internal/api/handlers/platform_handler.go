package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/service"
	"github.com/maheshrc27/postscheduler/internal/transfer"
)

type PlatformHandler struct {
	ps service.PlatformService
}

func NewPlatformHandler(ps service.PlatformService) *PlatformHandler {
	return &PlatformHandler{ps: ps}
}

// ConnectAccount stores credentials handed over by the authorization flow.
func (h *PlatformHandler) ConnectAccount(c *fiber.Ctx) error {
	var req service.ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	platform := models.Platform(c.Params("platform"))
	if err := h.ps.Connect(c.Context(), GetOwnerID(c), platform, &req); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(transfer.AccountStatus{Platform: platform, Connected: true})
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.ps.List(c.Context(), GetOwnerID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) IsConnected(c *fiber.Ctx) error {
	platform := models.Platform(c.Params("platform"))
	connected, err := h.ps.IsConnected(c.Context(), GetOwnerID(c), platform)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(transfer.AccountStatus{Platform: platform, Connected: connected})
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	if err := h.ps.Disconnect(c.Context(), GetOwnerID(c), models.Platform(c.Params("platform"))); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
