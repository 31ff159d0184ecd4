// Package handlers exposes the ledger flows over HTTP. Handlers stay thin:
// parse, gate on the transaction PIN, call the orchestrator, map errors.
package handlers

import (
	"errors"

	domain "obata/internal/errors"
	"obata/internal/models"
	"obata/internal/providers/bank"
	"obata/internal/services/pin"
	"obata/internal/services/transfer"
	"obata/internal/utils"

	"github.com/gofiber/fiber/v2"
)

func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// respondError maps ledger failures onto HTTP responses. Balance state is
// already settled by the orchestrators before an error reaches this point;
// nothing here patches balances.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrEntryFinalized),
		errors.Is(err, transfer.ErrSelfTransfer),
		errors.Is(err, pin.ErrInvalidPin):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, pin.ErrWrongPin), errors.Is(err, pin.ErrPinNotSet):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrRecipientNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, bank.ErrAccountNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrAccountFrozen):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrLedgerConflict):
		return utils.Conflict(c, "the operation hit a concurrent update, please retry")
	case errors.Is(err, domain.ErrLedgerWriteFailed):
		return utils.InternalError(c, "the operation was not applied, it is safe to retry")
	default:
		return utils.InternalError(c, "something went wrong")
	}
}
