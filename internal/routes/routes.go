// Package routes wires the service graph and registers every HTTP route.
package routes

import (
	"time"

	"obata/internal/config"
	"obata/internal/handlers"
	"obata/internal/middleware"
	"obata/internal/providers/bank"
	"obata/internal/providers/bills"
	"obata/internal/providers/gateway"
	"obata/internal/repositories"
	"obata/internal/repositories/cache"
	"obata/internal/services/commission"
	"obata/internal/services/funding"
	"obata/internal/services/ledger"
	"obata/internal/services/pin"
	"obata/internal/services/purchase"
	"obata/internal/services/reconcile"
	"obata/internal/services/savings"
	"obata/internal/services/transfer"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services exposes the parts of the graph main needs after setup, mainly
// the reconciliation sweeper that runs outside the request path.
type Services struct {
	Ledger    ledger.Service
	Reconcile reconcile.Service
}

// SetupRoutes builds the service graph and registers all routes on app.
func SetupRoutes(app *fiber.App, db *gorm.DB, cacheService *cache.CacheService) *Services {
	repo := repositories.NewLedgerRepository(db)

	var accountCache ledger.AccountCache
	if cacheService != nil {
		accountCache = cacheService
	}

	ledgerService := ledger.NewService(repo, accountCache, &ledger.NoopMetricsCollector{}, ledger.Config{
		MaxRetries: config.GetIntEnv("LEDGER_MAX_RETRIES", ledger.DefaultMaxRetries),
	})
	pinService := pin.NewService(repo)

	resolver := bank.NewResolver(
		config.GetEnv("BANK_RESOLVER_URL", "https://api.paystack.co"),
		config.GetEnv("GATEWAY_SECRET_KEY", ""),
		config.GetDurationEnv("PROVIDER_TIMEOUT", 15*time.Second),
	)
	transferService := transfer.NewService(ledgerService, resolver, transfer.DefaultFeePolicy())

	billsClient := bills.NewClient(
		config.GetEnv("BILLS_PROVIDER_URL", "https://vtpass.com/api"),
		config.GetEnv("BILLS_API_KEY", ""),
		config.GetIntEnv("BILLS_MAX_RETRIES", 2),
		config.GetDurationEnv("PROVIDER_TIMEOUT", 15*time.Second),
	)
	purchaseService := purchase.NewService(ledgerService, billsClient, purchase.Config{
		CallTimeout: config.GetDurationEnv("PURCHASE_CALL_TIMEOUT", 30*time.Second),
	})

	fundingService := funding.NewService(ledgerService, newVerifier(), repo)
	savingsService := savings.NewService(ledgerService)
	commissionService := commission.NewService(ledgerService)
	reconcileService := reconcile.NewService(repo, ledgerService)

	walletHandler := handlers.NewWalletHandler(ledgerService)
	pinHandler := handlers.NewPinHandler(pinService)
	transferHandler := handlers.NewTransferHandler(transferService, pinService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, pinService)
	fundingHandler := handlers.NewFundingHandler(fundingService)
	savingsHandler := handlers.NewSavingsHandler(savingsService, pinService)
	commissionHandler := handlers.NewCommissionHandler(commissionService, pinService)
	healthHandler := handlers.NewHealthHandler(db, cacheService)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")
	authenticated := api.Group("/", middleware.Auth, middleware.ProvisionAccount(ledgerService))

	wallet := authenticated.Group("/wallet")
	wallet.Get("/", walletHandler.GetAccount)
	wallet.Get("/transactions", walletHandler.GetHistory)
	wallet.Post("/pin", pinHandler.SetPin)

	funding := authenticated.Group("/funding")
	funding.Post("/confirm", fundingHandler.Confirm)
	funding.Post("/manual", fundingHandler.SubmitManual)

	transfers := authenticated.Group("/transfer")
	transfers.Post("/peer", transferHandler.Peer)
	transfers.Post("/bank", transferHandler.Bank)
	transfers.Get("/resolve", transferHandler.ResolveBank)

	authenticated.Post("/purchase", purchaseHandler.Purchase)

	savingsGroup := authenticated.Group("/savings")
	savingsGroup.Post("/deposit", savingsHandler.Deposit)
	savingsGroup.Post("/withdraw", savingsHandler.Withdraw)
	savingsGroup.Get("/estimate", savingsHandler.Estimate)

	commissions := authenticated.Group("/commission")
	commissions.Post("/withdraw", commissionHandler.WithdrawToWallet)
	commissions.Post("/payout", commissionHandler.PayoutToBank)

	admin := authenticated.Group("/admin", middleware.RequireRole("admin"))
	admin.Get("/funding/manual", fundingHandler.PendingManual)
	admin.Post("/funding/manual/:id/approve", fundingHandler.ApproveManual)
	admin.Post("/funding/manual/:id/reject", fundingHandler.RejectManual)
	admin.Get("/parity/:userId", walletHandler.CheckParity)

	return &Services{Ledger: ledgerService, Reconcile: reconcileService}
}

// newVerifier picks the charge verifier from config. The REST verifier is
// the default; stripe is kept for deployments charging cards through it.
func newVerifier() gateway.Verifier {
	if config.GetEnv("GATEWAY_PROVIDER", "rest") == "stripe" {
		return gateway.NewStripeVerifier(config.GetEnv("STRIPE_SECRET_KEY", ""))
	}
	return gateway.NewRESTVerifier(
		config.GetEnv("GATEWAY_BASE_URL", "https://api.paystack.co"),
		config.GetEnv("GATEWAY_SECRET_KEY", ""),
		config.GetDurationEnv("PROVIDER_TIMEOUT", 15*time.Second),
	)
}
