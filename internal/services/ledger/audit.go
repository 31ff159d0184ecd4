package ledger

import (
	"context"
	"fmt"

	"obata/internal/models"

	"github.com/shopspring/decimal"
)

// ParityReport compares a user's stored balances against a replay of their
// transaction log.
type ParityReport struct {
	UserID   string
	Stored   map[models.BalanceField]decimal.Decimal
	Replayed map[models.BalanceField]decimal.Decimal
	Balanced bool
}

func (s *service) CheckParity(ctx context.Context, userID string) (*ParityReport, error) {
	acct, err := s.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListAllEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	replayed := ReplayBalances(entries)
	stored := map[models.BalanceField]decimal.Decimal{
		models.FieldWallet:     acct.WalletBalance,
		models.FieldSavings:    acct.SavingsBalance,
		models.FieldCommission: acct.CommissionBalance,
	}

	balanced := true
	for field, want := range stored {
		if !replayed[field].Equal(want) {
			balanced = false
		}
	}
	return &ParityReport{
		UserID:   userID,
		Stored:   stored,
		Replayed: replayed,
		Balanced: balanced,
	}, nil
}

// ReplayBalances recomputes an account's balances from its log entries,
// attributing each amount the same way the orchestrators move funds:
//
//   - FUNDING credits the wallet once SUCCESS (manual fundings move nothing
//     while PENDING or after rejection).
//   - DEBIT is a wallet-to-savings deposit; CREDIT is the reverse.
//   - TRANSFER entries carry a direction in metadata; the debit side loses
//     amount plus fee, the credit side gains amount.
//   - WITHDRAWAL debits its source bucket when written, PENDING included;
//     a REFUNDED entry of the same type is the compensating credit.
//   - Purchase types debit the wallet when written; their REFUNDED twin
//     restores it.
//   - COMMISSION moves commission earnings into the wallet.
func ReplayBalances(entries []models.Transaction) map[models.BalanceField]decimal.Decimal {
	balances := map[models.BalanceField]decimal.Decimal{
		models.FieldWallet:     decimal.Zero,
		models.FieldSavings:    decimal.Zero,
		models.FieldCommission: decimal.Zero,
	}

	for _, e := range entries {
		switch {
		case e.Type == models.TransactionTypeFunding:
			if e.Status == models.StatusSuccess {
				balances[models.FieldWallet] = balances[models.FieldWallet].Add(e.Amount)
			}

		case e.Type == models.TransactionTypeDebit:
			if e.Status == models.StatusSuccess {
				balances[models.FieldWallet] = balances[models.FieldWallet].Sub(e.Amount)
				balances[models.FieldSavings] = balances[models.FieldSavings].Add(e.Amount)
			}

		case e.Type == models.TransactionTypeCredit:
			if e.Status == models.StatusSuccess {
				balances[models.FieldSavings] = balances[models.FieldSavings].Sub(e.Amount)
				balances[models.FieldWallet] = balances[models.FieldWallet].Add(e.Amount)
			}

		case e.Type == models.TransactionTypeTransfer:
			if e.Status != models.StatusSuccess {
				continue
			}
			if metaString(e.Metadata, MetaDirection) == DirectionDebit {
				balances[models.FieldWallet] = balances[models.FieldWallet].Sub(e.Amount).Sub(e.Fee)
			} else {
				balances[models.FieldWallet] = balances[models.FieldWallet].Add(e.Amount)
			}

		case e.Type == models.TransactionTypeWithdrawal:
			field := models.FieldWallet
			if metaString(e.Metadata, MetaSource) == string(models.FieldCommission) {
				field = models.FieldCommission
			}
			if e.Status == models.StatusRefunded {
				balances[field] = balances[field].Add(e.Amount).Add(e.Fee)
			} else {
				balances[field] = balances[field].Sub(e.Amount).Sub(e.Fee)
			}

		case e.Type == models.TransactionTypeCommission:
			if e.Status == models.StatusSuccess {
				balances[models.FieldCommission] = balances[models.FieldCommission].Sub(e.Amount)
				balances[models.FieldWallet] = balances[models.FieldWallet].Add(e.Amount)
			}

		case models.IsPurchaseType(e.Type):
			if e.Status == models.StatusRefunded {
				balances[models.FieldWallet] = balances[models.FieldWallet].Add(e.Amount)
			} else {
				balances[models.FieldWallet] = balances[models.FieldWallet].Sub(e.Amount)
			}
		}
	}
	return balances
}

func metaString(m models.JSON, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
