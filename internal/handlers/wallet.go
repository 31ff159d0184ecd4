package handlers

import (
	"strconv"

	"obata/internal/services/ledger"
	"obata/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	ledgerService ledger.Service
}

func NewWalletHandler(ledgerService ledger.Service) *WalletHandler {
	return &WalletHandler{ledgerService: ledgerService}
}

func (h *WalletHandler) GetAccount(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	account, err := h.ledgerService.GetAccount(c.Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"wallet_balance":     account.WalletBalance,
		"savings_balance":    account.SavingsBalance,
		"commission_balance": account.CommissionBalance,
		"status":             account.Status,
	})
}

func (h *WalletHandler) GetHistory(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := h.ledgerService.History(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"transactions": entries,
		"limit":        limit,
		"offset":       offset,
	})
}

// CheckParity replays the caller's ledger entries and reports whether the
// stored balances match. Admin only; wired behind RequireRole.
func (h *WalletHandler) CheckParity(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return utils.BadRequest(c, "user id is required")
	}

	report, err := h.ledgerService.CheckParity(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, report)
}
