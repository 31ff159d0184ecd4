package handlers

import (
	"obata/internal/services/commission"
	"obata/internal/services/pin"
	"obata/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CommissionHandler struct {
	commissionService commission.Service
	pinService        pin.Service
}

func NewCommissionHandler(commissionService commission.Service, pinService pin.Service) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
		pinService:        pinService,
	}
}

func (h *CommissionHandler) WithdrawToWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount decimal.Decimal `json:"amount"`
		Pin    string          `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.pinService.Verify(c.Context(), claims.UserID, input.Pin); err != nil {
		return respondError(c, err)
	}

	entry, err := h.commissionService.WithdrawToWallet(c.Context(), claims.UserID, input.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "commission moved to wallet",
		"transaction": entry,
	})
}

func (h *CommissionHandler) PayoutToBank(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount        decimal.Decimal `json:"amount"`
		AccountNumber string          `json:"account_number"`
		BankCode      string          `json:"bank_code"`
		Pin           string          `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.AccountNumber == "" || input.BankCode == "" {
		return utils.BadRequest(c, "account number and bank code are required")
	}

	if err := h.pinService.Verify(c.Context(), claims.UserID, input.Pin); err != nil {
		return respondError(c, err)
	}

	entry, err := h.commissionService.PayoutToBank(c.Context(), claims.UserID, input.Amount, input.AccountNumber, input.BankCode)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "commission payout queued",
		"transaction": entry,
	})
}
