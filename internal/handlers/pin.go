package handlers

import (
	"obata/internal/services/pin"
	"obata/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PinHandler struct {
	pinService pin.Service
}

func NewPinHandler(pinService pin.Service) *PinHandler {
	return &PinHandler{pinService: pinService}
}

func (h *PinHandler) SetPin(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Pin string `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.pinService.Set(c.Context(), claims.UserID, input.Pin); err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{"message": "transaction pin updated"})
}
