package handlers

import (
	"obata/internal/services/pin"
	"obata/internal/services/transfer"
	"obata/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TransferHandler struct {
	transferService transfer.Service
	pinService      pin.Service
}

func NewTransferHandler(transferService transfer.Service, pinService pin.Service) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		pinService:      pinService,
	}
}

func (h *TransferHandler) Peer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Recipient string          `json:"recipient"`
		Amount    decimal.Decimal `json:"amount"`
		Note      string          `json:"note"`
		Pin       string          `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Recipient == "" {
		return utils.BadRequest(c, "recipient is required")
	}

	if err := h.pinService.Verify(c.Context(), claims.UserID, input.Pin); err != nil {
		return respondError(c, err)
	}

	result, err := h.transferService.Peer(c.Context(), claims.UserID, input.Recipient, input.Amount, input.Note)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "transfer completed",
		"reference":   result.Reference,
		"transaction": result.Sender,
	})
}

func (h *TransferHandler) Bank(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		AccountNumber string          `json:"account_number"`
		BankCode      string          `json:"bank_code"`
		AccountName   string          `json:"account_name"`
		Amount        decimal.Decimal `json:"amount"`
		Narration     string          `json:"narration"`
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

	entry, err := h.transferService.Bank(c.Context(), claims.UserID, transfer.BankRequest{
		AccountNumber: input.AccountNumber,
		BankCode:      input.BankCode,
		AccountName:   input.AccountName,
		Amount:        input.Amount,
		Narration:     input.Narration,
	})
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "withdrawal queued",
		"transaction": entry,
	})
}

func (h *TransferHandler) ResolveBank(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	accountNumber := c.Query("account_number")
	bankCode := c.Query("bank_code")
	if accountNumber == "" || bankCode == "" {
		return utils.BadRequest(c, "account_number and bank_code are required")
	}

	resolution, err := h.transferService.ResolveBankAccount(c.Context(), accountNumber, bankCode)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"account_name": resolution.AccountName,
	})
}
