// Package purchase orchestrates wallet-funded purchases from the VTU/bills
// provider. The debit and its log entry commit first; the provider call
// happens outside the store transaction so a failure there is explicit and
// compensated, never silently absorbed.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "obata/internal/errors"
	"obata/internal/models"
	"obata/internal/providers/bills"
	"obata/internal/services/ledger"
	"obata/internal/utils"

	"github.com/shopspring/decimal"
)

var ErrUnsupportedType = errors.New("unsupported purchase type")

// Provider is the bills adapter surface the orchestrator needs.
type Provider interface {
	Pay(ctx context.Context, req bills.PayRequest) (*bills.PayResponse, error)
}

// Request describes one purchase. Target is the phone number, smartcard or
// meter number the credit is delivered to.
type Request struct {
	UserID    string
	Type      string
	ServiceID string
	Target    string
	Variation string
	Amount    decimal.Decimal
}

// Receipt reports the final state of a purchase attempt. Refunded is true
// when delivery failed and the wallet was restored.
type Receipt struct {
	Reference string
	Status    string
	Refunded  bool
	Message   string
}

type Config struct {
	// CallTimeout bounds the wait on the provider so a hung call cannot
	// leave the wallet debited indefinitely.
	CallTimeout time.Duration
}

type Service interface {
	Purchase(ctx context.Context, req Request) (*Receipt, error)
}

type service struct {
	ledger   ledger.Service
	provider Provider
	config   Config
}

func NewService(ledgerSvc ledger.Service, provider Provider, cfg Config) Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if provider == nil {
		panic("provider is required")
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &service{
		ledger:   ledgerSvc,
		provider: provider,
		config:   cfg,
	}
}

func (s *service) Purchase(ctx context.Context, req Request) (*Receipt, error) {
	if !models.IsPurchaseType(req.Type) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, req.Type)
	}
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	reference := utils.NewReference(req.Type[:3])
	entry := &models.Transaction{
		UserID:      req.UserID,
		Type:        req.Type,
		Amount:      req.Amount,
		Status:      models.StatusPending,
		Reference:   reference,
		Description: fmt.Sprintf("%s purchase for %s", req.Type, req.Target),
		Method:      models.MethodWallet,
		Metadata: models.JSON{
			"service_id": req.ServiceID,
			"target":     req.Target,
		},
	}

	// Step 1: debit the wallet and record the pending entry atomically.
	// If the balance is short this fails here, before any provider call.
	err := s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{
			{UserID: req.UserID, Deltas: []ledger.Delta{ledger.Debit(models.FieldWallet, req.Amount)}},
		},
		Entries: []*models.Transaction{entry},
	})
	if err != nil {
		return nil, err
	}

	// Step 2: deliver. A timeout here means delivery state is unknown; it is
	// treated as failed for refund purposes and the raw outcome is kept in
	// metadata for manual reconciliation.
	callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	resp, provErr := s.provider.Pay(callCtx, bills.PayRequest{
		RequestID: reference,
		ServiceID: req.ServiceID,
		Target:    req.Target,
		Variation: req.Variation,
		Amount:    req.Amount,
	})
	if provErr == nil {
		if err := s.ledger.Apply(ctx, ledger.Mutation{
			StatusChanges: []ledger.StatusChange{{
				EntryID: entry.ID,
				Status:  models.StatusSuccess,
				Metadata: models.JSON{
					ledger.MetaProvider: resp.Description,
				},
			}},
		}); err != nil {
			return nil, err
		}
		return &Receipt{Reference: reference, Status: models.StatusSuccess, Message: resp.Description}, nil
	}

	if err := s.refund(ctx, req, entry, provErr); err != nil {
		return nil, err
	}
	return &Receipt{
		Reference: reference,
		Status:    models.StatusFailed,
		Refunded:  true,
		Message:   failureMessage(provErr),
	}, nil
}

// refund restores the wallet after a failed delivery. The failure flip and
// the compensating credit are one atomic mutation, so the log can never show
// a failed purchase whose money silently stayed gone.
func (s *service) refund(ctx context.Context, req Request, entry *models.Transaction, provErr error) error {
	refundEntry := &models.Transaction{
		UserID:      req.UserID,
		Type:        req.Type,
		Amount:      req.Amount,
		Status:      models.StatusRefunded,
		Reference:   entry.Reference,
		Description: fmt.Sprintf("Refund for failed %s purchase", req.Type),
		Method:      models.MethodWallet,
		Metadata: models.JSON{
			ledger.MetaRefundOf: entry.ID,
		},
	}

	return s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{
			{UserID: req.UserID, Deltas: []ledger.Delta{ledger.Credit(models.FieldWallet, req.Amount)}},
		},
		Entries: []*models.Transaction{refundEntry},
		StatusChanges: []ledger.StatusChange{{
			EntryID: entry.ID,
			Status:  models.StatusFailed,
			Metadata: models.JSON{
				ledger.MetaProvider: provErr.Error(),
			},
		}},
	})
}

func failureMessage(err error) string {
	var rejected *bills.RejectedError
	switch {
	case errors.As(err, &rejected):
		return rejected.Message
	case errors.Is(err, bills.ErrProviderTimeout):
		return "provider did not respond, your wallet has been refunded"
	default:
		return "purchase failed, your wallet has been refunded"
	}
}
