// Package savings moves funds between the wallet and the locked savings
// balance. Interest is a display projection only; nothing accrues to the
// stored balance over time.
package savings

import (
	"context"
	"fmt"

	domain "obata/internal/errors"
	"obata/internal/models"
	"obata/internal/services/ledger"
	"obata/internal/utils"

	"github.com/shopspring/decimal"
)

// DailyRate is the stated interest rate per unit principal per day used for
// the return estimate shown to users.
var DailyRate = decimal.NewFromFloat(0.0005) // 0.05% per day

type Service interface {
	// Deposit locks amount from the wallet into savings.
	Deposit(ctx context.Context, userID string, amount decimal.Decimal, termDays int) (*models.Transaction, error)
	// Withdraw releases amount from savings back to the wallet.
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*models.Transaction, error)
	// EstimateReturn projects the interest amount for a principal held the
	// given number of days. An estimate, not a ledger guarantee.
	EstimateReturn(amount decimal.Decimal, days int) decimal.Decimal
}

type service struct {
	ledger ledger.Service
}

func NewService(ledgerSvc ledger.Service) Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	return &service{ledger: ledgerSvc}
}

func (s *service) Deposit(ctx context.Context, userID string, amount decimal.Decimal, termDays int) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeDebit,
		Amount:      amount,
		Status:      models.StatusSuccess,
		Reference:   utils.NewReference("SAV"),
		Description: fmt.Sprintf("Savings deposit for %d days", termDays),
		Method:      models.MethodWallet,
		Metadata: models.JSON{
			"term_days":        termDays,
			"estimated_return": s.EstimateReturn(amount, termDays).String(),
		},
	}

	err := s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{{
			UserID: userID,
			Deltas: []ledger.Delta{
				ledger.Debit(models.FieldWallet, amount),
				ledger.Credit(models.FieldSavings, amount),
			},
		}},
		Entries: []*models.Transaction{entry},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeCredit,
		Amount:      amount,
		Status:      models.StatusSuccess,
		Reference:   utils.NewReference("SAV"),
		Description: "Savings withdrawal",
		Method:      models.MethodWallet,
	}

	err := s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{{
			UserID: userID,
			Deltas: []ledger.Delta{
				ledger.Debit(models.FieldSavings, amount),
				ledger.Credit(models.FieldWallet, amount),
			},
		}},
		Entries: []*models.Transaction{entry},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) EstimateReturn(amount decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(DailyRate).Mul(decimal.NewFromInt(int64(days))).Round(2)
}
