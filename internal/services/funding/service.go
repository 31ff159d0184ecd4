// Package funding orchestrates wallet top-ups: gateway-confirmed charges and
// manually reviewed bank deposits. The client-reported reference is verified
// with the gateway server-to-server before any credit commits.
package funding

import (
	"context"
	"errors"
	"fmt"

	domain "obata/internal/errors"
	"obata/internal/models"
	"obata/internal/providers/gateway"
	"obata/internal/repositories"
	"obata/internal/services/ledger"
	"obata/internal/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrChargeNotPaid   = errors.New("charge has not been paid")
	ErrAlreadyCredited = errors.New("charge reference already credited")
	ErrNotManualEntry  = errors.New("entry is not a manual funding request")
)

type Service interface {
	// Confirm verifies a completed gateway charge and credits the wallet by
	// the gateway-reported amount. Safe to call twice with one reference;
	// the second call fails without a second credit.
	Confirm(ctx context.Context, userID, chargeReference string) (*models.Transaction, error)
	// SubmitManual records a claimed bank deposit with its proof image. No
	// balance moves until an administrator approves it.
	SubmitManual(ctx context.Context, userID string, amount decimal.Decimal, proofURL string) (*models.Transaction, error)
	// ApproveManual credits the wallet and finalizes the pending entry in
	// one atomic commit.
	ApproveManual(ctx context.Context, entryID uint) error
	// RejectManual finalizes the pending entry as FAILED with no credit.
	RejectManual(ctx context.Context, entryID uint, reason string) error
	// PendingManual lists manual deposits awaiting review.
	PendingManual(ctx context.Context, limit int) ([]models.Transaction, error)
}

type service struct {
	ledger   ledger.Service
	verifier gateway.Verifier
	repo     repositories.LedgerRepository
}

func NewService(ledgerSvc ledger.Service, verifier gateway.Verifier, repo repositories.LedgerRepository) Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if verifier == nil {
		panic("gateway verifier is required")
	}
	return &service{
		ledger:   ledgerSvc,
		verifier: verifier,
		repo:     repo,
	}
}

func (s *service) Confirm(ctx context.Context, userID, chargeReference string) (*models.Transaction, error) {
	// Fast path: skip the gateway round-trip for a reference we already
	// credited. The guard on the mutation below is the authoritative check;
	// it runs inside the store transaction and catches concurrent Confirms
	// that both get past this read.
	existing, err := s.ledger.EntriesByReference(ctx, chargeReference)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrAlreadyCredited
	}

	charge, err := s.verifier.VerifyCharge(ctx, chargeReference)
	if err != nil {
		return nil, fmt.Errorf("charge verification failed: %w", err)
	}
	if !charge.Paid {
		return nil, ErrChargeNotPaid
	}
	if !charge.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeFunding,
		Amount:      charge.Amount,
		Status:      models.StatusSuccess,
		Reference:   chargeReference,
		Description: "Wallet funding",
		Method:      models.MethodGateway,
		Metadata: models.JSON{
			"currency": charge.Currency,
			"channel":  charge.Channel,
		},
	}

	err = s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{
			{UserID: userID, Deltas: []ledger.Delta{ledger.Credit(models.FieldWallet, charge.Amount)}},
		},
		Entries: []*models.Transaction{entry},
		Guards: []ledger.ReferenceGuard{
			{Reference: chargeReference, Type: models.TransactionTypeFunding},
		},
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateReference) {
			return nil, ErrAlreadyCredited
		}
		return nil, err
	}
	return entry, nil
}

func (s *service) SubmitManual(ctx context.Context, userID string, amount decimal.Decimal, proofURL string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if _, err := s.ledger.GetAccount(ctx, userID); err != nil {
		return nil, err
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeFunding,
		Amount:      amount,
		Status:      models.StatusPending,
		Reference:   utils.NewReference("FND"),
		Description: "Manual wallet funding",
		Method:      models.MethodManual,
		Metadata: models.JSON{
			ledger.MetaProof: proofURL,
		},
	}

	// Entry only; the wallet is untouched until approval.
	err := s.ledger.Apply(ctx, ledger.Mutation{
		Entries: []*models.Transaction{entry},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ApproveManual(ctx context.Context, entryID uint) error {
	entry, err := s.manualEntry(ctx, entryID)
	if err != nil {
		return err
	}
	return s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{
			{UserID: entry.UserID, Deltas: []ledger.Delta{ledger.Credit(models.FieldWallet, entry.Amount)}},
		},
		StatusChanges: []ledger.StatusChange{{
			EntryID: entryID,
			Status:  models.StatusSuccess,
		}},
	})
}

func (s *service) RejectManual(ctx context.Context, entryID uint, reason string) error {
	if _, err := s.manualEntry(ctx, entryID); err != nil {
		return err
	}
	return s.ledger.AdvanceEntry(ctx, entryID, models.StatusFailed, models.JSON{
		"review_note": reason,
	})
}

func (s *service) PendingManual(ctx context.Context, limit int) ([]models.Transaction, error) {
	if s.repo == nil {
		return nil, errors.New("review queue not configured")
	}
	return s.repo.ListPendingReview(ctx, repositories.PendingFilter{
		Type:   models.TransactionTypeFunding,
		Method: models.MethodManual,
		Limit:  limit,
	})
}

func (s *service) manualEntry(ctx context.Context, entryID uint) (*models.Transaction, error) {
	entry, err := s.ledger.Entry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Type != models.TransactionTypeFunding || entry.Method != models.MethodManual {
		return nil, ErrNotManualEntry
	}
	return entry, nil
}
