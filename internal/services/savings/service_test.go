package savings

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

func fund(t *testing.T, svc ledger.Service, userID string, wallet int64) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, userID, "user-"+userID, userID+"@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{{
			UserID: userID,
			Deltas: []ledger.Delta{ledger.Credit(models.FieldWallet, decimal.NewFromInt(wallet))},
		}},
		Entries: []*models.Transaction{{
			UserID: userID, Type: models.TransactionTypeFunding,
			Amount: decimal.NewFromInt(wallet), Status: models.StatusSuccess,
			Reference: "SEED-" + userID, Method: models.MethodGateway,
		}},
	}))
}

func TestDeposit_MovesWalletToSavings(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc)
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", 1000)

	entry, err := svc.Deposit(ctx, "u1", decimal.NewFromInt(400), 30)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeDebit, entry.Type)
	assert.Equal(t, models.StatusSuccess, entry.Status)

	acct, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acct.WalletBalance.Equal(decimal.NewFromInt(600)))
	assert.True(t, acct.SavingsBalance.Equal(decimal.NewFromInt(400)))

	// Funds moved, none were created.
	total := acct.WalletBalance.Add(acct.SavingsBalance)
	assert.True(t, total.Equal(decimal.NewFromInt(1000)))

	report, err := ledgerSvc.CheckParity(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, report.Balanced)
}

func TestDeposit_InsufficientWallet(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc)
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", 100)

	_, err := svc.Deposit(ctx, "u1", decimal.NewFromInt(500), 30)
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))

	acct, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acct.WalletBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, acct.SavingsBalance.IsZero())
}

func TestWithdraw_MovesSavingsToWallet(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc)
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", 1000)
	_, err := svc.Deposit(ctx, "u1", decimal.NewFromInt(400), 30)
	require.NoError(t, err)

	entry, err := svc.Withdraw(ctx, "u1", decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeCredit, entry.Type)

	acct, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acct.WalletBalance.Equal(decimal.NewFromInt(750)))
	assert.True(t, acct.SavingsBalance.Equal(decimal.NewFromInt(250)))

	_, err = svc.Withdraw(ctx, "u1", decimal.NewFromInt(9999))
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))
}

func TestEstimateReturn(t *testing.T) {
	svc := NewService(newTestLedger(t))

	// 10000 at 0.05% daily for 30 days.
	got := svc.EstimateReturn(decimal.NewFromInt(10000), 30)
	assert.True(t, got.Equal(decimal.NewFromInt(150)), "got %s", got)

	assert.True(t, svc.EstimateReturn(decimal.NewFromInt(10000), 0).IsZero())
	assert.True(t, svc.EstimateReturn(decimal.Zero, 30).IsZero())
}
