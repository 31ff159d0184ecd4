package handlers

import (
	"errors"
	"strconv"

	"obata/internal/services/funding"
	"obata/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type FundingHandler struct {
	fundingService funding.Service
}

func NewFundingHandler(fundingService funding.Service) *FundingHandler {
	return &FundingHandler{fundingService: fundingService}
}

// Confirm credits the wallet after the gateway confirms the charge was paid.
// The client never reports the amount; it comes from the gateway.
func (h *FundingHandler) Confirm(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Reference string `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Reference == "" {
		return utils.BadRequest(c, "charge reference is required")
	}

	entry, err := h.fundingService.Confirm(c.Context(), claims.UserID, input.Reference)
	if err != nil {
		switch {
		case errors.Is(err, funding.ErrAlreadyCredited):
			return utils.Conflict(c, "this charge has already been credited")
		case errors.Is(err, funding.ErrChargeNotPaid):
			return utils.UnprocessableEntity(c, "the charge has not been paid")
		default:
			return respondError(c, err)
		}
	}

	return utils.Success(c, fiber.Map{
		"message":     "wallet funded",
		"transaction": entry,
	})
}

func (h *FundingHandler) SubmitManual(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount   decimal.Decimal `json:"amount"`
		ProofURL string          `json:"proof_url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.ProofURL == "" {
		return utils.BadRequest(c, "proof of payment is required")
	}

	entry, err := h.fundingService.SubmitManual(c.Context(), claims.UserID, input.Amount, input.ProofURL)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "deposit submitted for review",
		"transaction": entry,
	})
}

func (h *FundingHandler) PendingManual(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := h.fundingService.PendingManual(c.Context(), limit)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{"deposits": entries})
}

func (h *FundingHandler) ApproveManual(c *fiber.Ctx) error {
	entryID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "invalid entry id")
	}

	if err := h.fundingService.ApproveManual(c.Context(), uint(entryID)); err != nil {
		if errors.Is(err, funding.ErrNotManualEntry) {
			return utils.BadRequest(c, err.Error())
		}
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{"message": "deposit approved"})
}

func (h *FundingHandler) RejectManual(c *fiber.Ctx) error {
	entryID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "invalid entry id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.fundingService.RejectManual(c.Context(), uint(entryID), input.Reason); err != nil {
		if errors.Is(err, funding.ErrNotManualEntry) {
			return utils.BadRequest(c, err.Error())
		}
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{"message": "deposit rejected"})
}
