package handlers

import (
	"obata/internal/models"
	"obata/internal/services/pin"
	"obata/internal/services/purchase"
	"obata/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PurchaseHandler struct {
	purchaseService purchase.Service
	pinService      pin.Service
}

func NewPurchaseHandler(purchaseService purchase.Service, pinService pin.Service) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		pinService:      pinService,
	}
}

func (h *PurchaseHandler) Purchase(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Type      string          `json:"type"`
		ServiceID string          `json:"service_id"`
		Target    string          `json:"target"`
		Variation string          `json:"variation"`
		Amount    decimal.Decimal `json:"amount"`
		Pin       string          `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if !models.IsPurchaseType(input.Type) {
		return utils.BadRequest(c, "unsupported purchase type")
	}
	if input.Target == "" {
		return utils.BadRequest(c, "target is required")
	}

	if err := h.pinService.Verify(c.Context(), claims.UserID, input.Pin); err != nil {
		return respondError(c, err)
	}

	receipt, err := h.purchaseService.Purchase(c.Context(), purchase.Request{
		UserID:    claims.UserID,
		Type:      input.Type,
		ServiceID: input.ServiceID,
		Target:    input.Target,
		Variation: input.Variation,
		Amount:    input.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}

	// Delivery failure is not a transport error: the wallet was refunded and
	// the caller gets the receipt saying so.
	if receipt.Refunded {
		return utils.Respond(c, fiber.StatusUnprocessableEntity, fiber.Map{
			"message":   receipt.Message,
			"reference": receipt.Reference,
			"status":    receipt.Status,
			"refunded":  true,
		})
	}

	return utils.Success(c, fiber.Map{
		"message":   "purchase delivered",
		"reference": receipt.Reference,
		"status":    receipt.Status,
	})
}
