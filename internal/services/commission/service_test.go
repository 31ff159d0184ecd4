package commission

import (
	"context"
	"errors"
	"testing"

	domain "obata/internal/errors"
	"obata/internal/models"
	"obata/internal/repositories"
	"obata/internal/services/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLedger(t *testing.T) ledger.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repositories.Migrate(db))
	return ledger.NewService(repositories.NewLedgerRepository(db), nil, nil, ledger.Config{})
}

// earn seeds commission balance through the ledger so the log stays
// consistent with the stored balances.
func earn(t *testing.T, svc ledger.Service, userID string, amount int64) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, userID, "user-"+userID, userID+"@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{{
			UserID: userID,
			Deltas: []ledger.Delta{ledger.Credit(models.FieldCommission, decimal.NewFromInt(amount))},
		}},
		Entries: []*models.Transaction{{
			UserID: userID, Type: models.TransactionTypeFunding,
			Amount: decimal.NewFromInt(amount), Status: models.StatusPending,
			Reference: "EARN-" + userID, Method: models.MethodWallet,
		}},
	}))
}

func TestWithdrawToWallet(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc)
	ctx := context.Background()

	earn(t, ledgerSvc, "u1", 500)

	entry, err := svc.WithdrawToWallet(ctx, "u1", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeCommission, entry.Type)
	assert.Equal(t, models.StatusSuccess, entry.Status)

	acct, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acct.CommissionBalance.Equal(decimal.NewFromInt(300)))
	assert.True(t, acct.WalletBalance.Equal(decimal.NewFromInt(200)))

	_, err = svc.WithdrawToWallet(ctx, "u1", decimal.NewFromInt(9999))
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))

	_, err = svc.WithdrawToWallet(ctx, "u1", decimal.Zero)
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
}

func TestPayoutToBank(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc)
	ctx := context.Background()

	earn(t, ledgerSvc, "u1", 500)

	entry, err := svc.PayoutToBank(ctx, "u1", decimal.NewFromInt(300), "0123456789", "058")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeWithdrawal, entry.Type)
	assert.Equal(t, models.StatusPending, entry.Status)
	assert.Equal(t, string(models.FieldCommission), entry.Metadata[ledger.MetaSource])

	acct, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acct.CommissionBalance.Equal(decimal.NewFromInt(200)))
	assert.True(t, acct.WalletBalance.IsZero())
}
