package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"obata/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) (LedgerRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return NewLedgerRepository(db), db
}

func TestResolveAccount(t *testing.T) {
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.CreateAccount(&models.Account{
		UserID: "u1", Username: "amara", Email: "amara@example.com", Status: models.AccountStatusActive,
	}))
	require.NoError(t, repo.CreateAccount(&models.Account{
		UserID: "u2", Username: "bode", Email: "bode@example.com", Status: models.AccountStatusActive,
	}))

	acct, err := repo.ResolveAccount("amara")
	require.NoError(t, err)
	assert.Equal(t, "u1", acct.UserID)

	acct, err = repo.ResolveAccount("bode@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", acct.UserID)

	_, err = repo.ResolveAccount("nobody")
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestAdvanceEntryStatus_GuardsTerminalEntries(t *testing.T) {
	repo, _ := newTestRepo(t)

	entry := &models.Transaction{
		UserID:    "u1",
		Type:      models.TransactionTypeWithdrawal,
		Amount:    decimal.NewFromInt(100),
		Status:    models.StatusPending,
		Reference: "WDL-1",
		Method:    models.MethodBank,
	}
	require.NoError(t, repo.CreateEntry(entry))

	require.NoError(t, repo.AdvanceEntryStatus(entry.ID, models.StatusSuccess, models.JSON{"settled": true}))

	got, err := repo.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, got.Status)
	assert.Equal(t, true, got.Metadata["settled"])

	err = repo.AdvanceEntryStatus(entry.ID, models.StatusFailed, nil)
	assert.True(t, errors.Is(err, ErrEntryFinalized))

	err = repo.AdvanceEntryStatus(9999, models.StatusFailed, nil)
	assert.True(t, errors.Is(err, ErrEntryNotFound))
}

func TestAdvanceEntryStatus_NeverTouchesAmount(t *testing.T) {
	repo, _ := newTestRepo(t)

	entry := &models.Transaction{
		UserID:    "u1",
		Type:      models.TransactionTypeAirtime,
		Amount:    decimal.NewFromInt(250),
		Fee:       decimal.NewFromInt(5),
		Status:    models.StatusPending,
		Reference: "AIR-1",
		Method:    models.MethodWallet,
	}
	require.NoError(t, repo.CreateEntry(entry))
	require.NoError(t, repo.AdvanceEntryStatus(entry.ID, models.StatusFailed, nil))

	got, err := repo.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(250)))
	assert.True(t, got.Fee.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "AIR-1", got.Reference)
}

func TestListPendingReview_Filters(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	entries := []*models.Transaction{
		{UserID: "u1", Type: models.TransactionTypeFunding, Amount: decimal.NewFromInt(10), Status: models.StatusPending, Reference: "F1", Method: models.MethodManual},
		{UserID: "u2", Type: models.TransactionTypeFunding, Amount: decimal.NewFromInt(20), Status: models.StatusPending, Reference: "F2", Method: models.MethodManual},
		{UserID: "u1", Type: models.TransactionTypeWithdrawal, Amount: decimal.NewFromInt(30), Status: models.StatusPending, Reference: "W1", Method: models.MethodBank},
		{UserID: "u1", Type: models.TransactionTypeFunding, Amount: decimal.NewFromInt(40), Status: models.StatusSuccess, Reference: "F3", Method: models.MethodManual},
	}
	for _, e := range entries {
		require.NoError(t, repo.CreateEntry(e))
	}

	got, err := repo.ListPendingReview(ctx, PendingFilter{
		Type:   models.TransactionTypeFunding,
		Method: models.MethodManual,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, models.StatusPending, e.Status)
		assert.Equal(t, models.TransactionTypeFunding, e.Type)
	}

	got, err = repo.ListPendingReview(ctx, PendingFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListStalePending(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	old := &models.Transaction{
		UserID: "u1", Type: models.TransactionTypeData, Amount: decimal.NewFromInt(50),
		Status: models.StatusPending, Reference: "D1", Method: models.MethodWallet,
	}
	fresh := &models.Transaction{
		UserID: "u1", Type: models.TransactionTypeData, Amount: decimal.NewFromInt(60),
		Status: models.StatusPending, Reference: "D2", Method: models.MethodWallet,
	}
	require.NoError(t, repo.CreateEntry(old))
	require.NoError(t, repo.CreateEntry(fresh))

	// Age the first entry past the cutoff.
	staleAt := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("id = ?", old.ID).
		Update("created_at", staleAt).Error)

	got, err := repo.ListStalePending(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.ID, got[0].ID)
}

func TestExecuteInTransaction_RollsBackOnError(t *testing.T) {
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.CreateAccount(&models.Account{
		UserID: "u1", Username: "amara", Email: "amara@example.com",
		WalletBalance: decimal.NewFromInt(100), Status: models.AccountStatusActive,
	}))

	sentinel := errors.New("boom")
	err := repo.ExecuteInTransaction(func(tx LedgerRepository) error {
		acct, err := tx.GetAccountForUpdate("u1")
		require.NoError(t, err)
		acct.WalletBalance = decimal.NewFromInt(999)
		require.NoError(t, tx.SaveAccount(acct))
		return sentinel
	})
	assert.True(t, errors.Is(err, sentinel))

	acct, err := repo.GetAccount("u1")
	require.NoError(t, err)
	assert.True(t, acct.WalletBalance.Equal(decimal.NewFromInt(100)))
}
