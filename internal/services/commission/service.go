// Package commission handles referral/reseller earnings: crediting them from
// settled purchases and moving them out, either into the wallet or to a bank
// payout that stays pending until reconciled.
package commission

import (
	"context"

	domain "obata/internal/errors"
	"obata/internal/models"
	"obata/internal/services/ledger"
	"obata/internal/utils"

	"github.com/shopspring/decimal"
)

type Service interface {
	// WithdrawToWallet moves earned commission into the spendable wallet.
	WithdrawToWallet(ctx context.Context, userID string, amount decimal.Decimal) (*models.Transaction, error)
	// PayoutToBank debits the commission balance and parks a WITHDRAWAL
	// entry pending until the payout clears.
	PayoutToBank(ctx context.Context, userID string, amount decimal.Decimal, accountNumber, bankCode string) (*models.Transaction, error)
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

func (s *service) WithdrawToWallet(ctx context.Context, userID string, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeCommission,
		Amount:      amount,
		Status:      models.StatusSuccess,
		Reference:   utils.NewReference("COM"),
		Description: "Commission withdrawal to wallet",
		Method:      models.MethodWallet,
	}

	err := s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{{
			UserID: userID,
			Deltas: []ledger.Delta{
				ledger.Debit(models.FieldCommission, amount),
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

func (s *service) PayoutToBank(ctx context.Context, userID string, amount decimal.Decimal, accountNumber, bankCode string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeWithdrawal,
		Amount:      amount,
		Status:      models.StatusPending,
		Reference:   utils.NewReference("COM"),
		Description: "Commission payout to bank",
		Method:      models.MethodBank,
		Metadata: models.JSON{
			ledger.MetaSource: string(models.FieldCommission),
			"account_number":  accountNumber,
			"bank_code":       bankCode,
		},
	}

	err := s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{{
			UserID: userID,
			Deltas: []ledger.Delta{ledger.Debit(models.FieldCommission, amount)},
		}},
		Entries: []*models.Transaction{entry},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
