package transfer

import (
	"context"
	"errors"
	"sync"
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

func fund(t *testing.T, svc ledger.Service, userID, username string, wallet int64) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, userID, username, username+"@example.com")
	require.NoError(t, err)
	if wallet == 0 {
		return
	}
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

func TestPeer_MovesFundsAndConservesTotal(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc, nil, DefaultFeePolicy())
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", "amara", 1000)
	fund(t, ledgerSvc, "u2", "bode", 100)

	result, err := svc.Peer(ctx, "u1", "bode", decimal.NewFromInt(300), "rent")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Reference)

	sender, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	recipient, err := ledgerSvc.GetAccount(ctx, "u2")
	require.NoError(t, err)

	assert.True(t, sender.WalletBalance.Equal(decimal.NewFromInt(700)))
	assert.True(t, recipient.WalletBalance.Equal(decimal.NewFromInt(400)))
	// Total across both wallets is unchanged.
	total := sender.WalletBalance.Add(recipient.WalletBalance)
	assert.True(t, total.Equal(decimal.NewFromInt(1100)))

	// Both sides of the transfer share one reference, with opposite
	// directions in metadata.
	entries, err := ledgerSvc.EntriesByReference(ctx, result.Reference)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	directions := map[string]string{}
	for _, e := range entries {
		assert.Equal(t, models.TransactionTypeTransfer, e.Type)
		assert.Equal(t, models.StatusSuccess, e.Status)
		directions[e.UserID], _ = e.Metadata[ledger.MetaDirection].(string)
	}
	assert.Equal(t, ledger.DirectionDebit, directions["u1"])
	assert.Equal(t, ledger.DirectionCredit, directions["u2"])
}

func TestPeer_InsufficientFundsChangesNothing(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc, nil, DefaultFeePolicy())
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", "amara", 50)
	fund(t, ledgerSvc, "u2", "bode", 0)

	_, err := svc.Peer(ctx, "u1", "bode", decimal.NewFromInt(300), "")
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))

	sender, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	recipient, err := ledgerSvc.GetAccount(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, sender.WalletBalance.Equal(decimal.NewFromInt(50)))
	assert.True(t, recipient.WalletBalance.IsZero())

	// Neither side got a transfer entry.
	history, err := ledgerSvc.History(ctx, "u2", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPeer_Validation(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc, nil, DefaultFeePolicy())
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", "amara", 100)

	_, err := svc.Peer(ctx, "u1", "amara", decimal.NewFromInt(10), "")
	assert.True(t, errors.Is(err, ErrSelfTransfer))

	_, err = svc.Peer(ctx, "u1", "ghost", decimal.NewFromInt(10), "")
	assert.True(t, errors.Is(err, domain.ErrRecipientNotFound))

	_, err = svc.Peer(ctx, "u1", "amara", decimal.Zero, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
}

func TestPeer_ConcurrentTransfersNeverPartiallyApply(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc, nil, DefaultFeePolicy())
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", "amara", 100)
	fund(t, ledgerSvc, "u2", "bode", 50)

	// Ten transfers of 30 race against a wallet of 100: only three fit.
	// Each commit reads both accounts inside its own store transaction, so
	// a conflicting write makes the transfer apply fully or not at all.
	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Peer(ctx, "u1", "bode", decimal.NewFromInt(30), "split")
		}(i)
	}
	wg.Wait()

	var committed, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrLedgerConflict):
			rejected++
		default:
			t.Fatalf("unexpected transfer error: %v", err)
		}
	}
	assert.Equal(t, 3, committed)
	assert.Equal(t, attempts-3, rejected)

	sender, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	recipient, err := ledgerSvc.GetAccount(ctx, "u2")
	require.NoError(t, err)

	// The recipient gained exactly what the sender lost.
	assert.True(t, sender.WalletBalance.Equal(decimal.NewFromInt(10)))
	assert.True(t, recipient.WalletBalance.Equal(decimal.NewFromInt(140)))

	for _, userID := range []string{"u1", "u2"} {
		report, err := ledgerSvc.CheckParity(ctx, userID)
		require.NoError(t, err)
		assert.True(t, report.Balanced, "replayed balances diverge for %s", userID)
	}
}

func TestBank_DebitsAmountPlusFee(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc, nil, DefaultFeePolicy())
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", "amara", 1000)

	entry, err := svc.Bank(ctx, "u1", BankRequest{
		AccountNumber: "0123456789",
		BankCode:      "058",
		AccountName:   "AMARA OKOYE",
		Amount:        decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypeWithdrawal, entry.Type)
	assert.Equal(t, models.StatusPending, entry.Status)
	assert.True(t, entry.Fee.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, string(models.FieldWallet), entry.Metadata[ledger.MetaSource])

	acct, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acct.WalletBalance.Equal(decimal.NewFromInt(475)), "got %s", acct.WalletBalance)
}

func TestBank_ZeroFeeBanks(t *testing.T) {
	ledgerSvc := newTestLedger(t)
	svc := NewService(ledgerSvc, nil, DefaultFeePolicy())
	ctx := context.Background()

	fund(t, ledgerSvc, "u1", "amara", 1000)

	entry, err := svc.Bank(ctx, "u1", BankRequest{
		AccountNumber: "0123456789",
		BankCode:      "090267", // Kuda
		Amount:        decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	assert.True(t, entry.Fee.IsZero())

	acct, err := ledgerSvc.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acct.WalletBalance.Equal(decimal.NewFromInt(500)))
}

func TestFeePolicy_BankFee(t *testing.T) {
	p := DefaultFeePolicy()
	assert.True(t, p.BankFee("058").Equal(decimal.NewFromInt(25)))
	assert.True(t, p.BankFee("090267").IsZero())
	assert.True(t, p.BankFee("100004").IsZero())
}
