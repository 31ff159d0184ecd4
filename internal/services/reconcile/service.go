// Package reconcile handles entries stuck in PENDING: it feeds the admin
// review queue and sweeps stale purchase debits back to the wallet. Manual
// fundings and bank payouts are surfaced, never auto-resolved; those need a
// human or a settlement report.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"obata/internal/models"
	"obata/internal/repositories"
	"obata/internal/services/ledger"
)

type Service interface {
	// ListStale returns PENDING entries older than the given age.
	ListStale(ctx context.Context, olderThan time.Duration) ([]models.Transaction, error)
	// SweepStalePurchases refunds purchase debits whose provider outcome
	// never arrived. Returns the number of entries swept.
	SweepStalePurchases(ctx context.Context, olderThan time.Duration) (int, error)
	// Run executes the sweep on an interval until ctx is cancelled.
	Run(ctx context.Context, interval, olderThan time.Duration)
}

type service struct {
	repo   repositories.LedgerRepository
	ledger ledger.Service
}

func NewService(repo repositories.LedgerRepository, ledgerSvc ledger.Service) Service {
	if repo == nil {
		panic("repo is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	return &service{repo: repo, ledger: ledgerSvc}
}

func (s *service) ListStale(ctx context.Context, olderThan time.Duration) ([]models.Transaction, error) {
	return s.repo.ListStalePending(ctx, time.Now().Add(-olderThan))
}

func (s *service) SweepStalePurchases(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.ListStale(ctx, olderThan)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, entry := range stale {
		if !models.IsPurchaseType(entry.Type) {
			continue
		}
		if err := s.refund(ctx, entry); err != nil {
			// Keep sweeping; the entry stays PENDING for the next pass.
			log.Printf("reconcile: failed to sweep entry %d: %v", entry.ID, err)
			continue
		}
		swept++
	}
	return swept, nil
}

// refund mirrors the purchase failure path: flip the stuck debit to FAILED
// and restore the wallet, atomically.
func (s *service) refund(ctx context.Context, entry models.Transaction) error {
	refundEntry := &models.Transaction{
		UserID:      entry.UserID,
		Type:        entry.Type,
		Amount:      entry.Amount,
		Status:      models.StatusRefunded,
		Reference:   entry.Reference,
		Description: fmt.Sprintf("Refund for stale %s purchase", entry.Type),
		Method:      models.MethodWallet,
		Metadata: models.JSON{
			ledger.MetaRefundOf: entry.ID,
		},
	}

	return s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{{
			UserID: entry.UserID,
			Deltas: []ledger.Delta{ledger.Credit(models.FieldWallet, entry.Amount)},
		}},
		Entries: []*models.Transaction{refundEntry},
		StatusChanges: []ledger.StatusChange{{
			EntryID: entry.ID,
			Status:  models.StatusFailed,
			Metadata: models.JSON{
				ledger.MetaProvider: "no provider response before sweep deadline",
			},
		}},
	})
}

func (s *service) Run(ctx context.Context, interval, olderThan time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepStalePurchases(ctx, olderThan)
			if err != nil {
				log.Printf("reconcile: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reconcile: refunded %d stale purchases", n)
			}
		}
	}
}
