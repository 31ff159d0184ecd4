package handlers

import (
	"obata/internal/services/pin"
	"obata/internal/services/savings"
	"obata/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SavingsHandler struct {
	savingsService savings.Service
	pinService     pin.Service
}

func NewSavingsHandler(savingsService savings.Service, pinService pin.Service) *SavingsHandler {
	return &SavingsHandler{
		savingsService: savingsService,
		pinService:     pinService,
	}
}

func (h *SavingsHandler) Deposit(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount   decimal.Decimal `json:"amount"`
		TermDays int             `json:"term_days"`
		Pin      string          `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	if err := h.pinService.Verify(c.Context(), claims.UserID, input.Pin); err != nil {
		return respondError(c, err)
	}

	entry, err := h.savingsService.Deposit(c.Context(), claims.UserID, input.Amount, input.TermDays)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "savings deposit completed",
		"transaction": entry,
	})
}

func (h *SavingsHandler) Withdraw(c *fiber.Ctx) error {
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

	entry, err := h.savingsService.Withdraw(c.Context(), claims.UserID, input.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "savings withdrawal completed",
		"transaction": entry,
	})
}

func (h *SavingsHandler) Estimate(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	amount, err := decimal.NewFromString(c.Query("amount", "0"))
	if err != nil {
		return utils.BadRequest(c, "invalid amount")
	}
	days := c.QueryInt("days", 30)
	if days <= 0 {
		return utils.BadRequest(c, "days must be positive")
	}

	return utils.Success(c, fiber.Map{
		"amount":           amount,
		"days":             days,
		"estimated_return": h.savingsService.EstimateReturn(amount, days),
	})
}
