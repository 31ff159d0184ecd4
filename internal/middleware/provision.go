package middleware

import (
	"obata/internal/models"
	"obata/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
)

// ProvisionAccount creates the ledger account for an authenticated user on
// first contact. Registration happens at the identity provider; the ledger
// only learns about a user when their first request arrives, so every
// authenticated route runs behind this. Must be mounted after Auth.
func ProvisionAccount(ledgerSvc ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if _, err := ledgerSvc.EnsureAccount(c.Context(), claims.UserID, claims.Username, claims.Email); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "account provisioning failed"})
		}
		return c.Next()
	}
}
