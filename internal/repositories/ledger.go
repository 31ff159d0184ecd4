package repositories

import (
	"context"
	"errors"
	"time"

	"obata/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEntryNotFound   = errors.New("transaction entry not found")
	ErrEntryFinalized  = errors.New("transaction entry already finalized")
)

// PendingFilter narrows the administrative review query for pending entries.
// Zero values mean "any".
type PendingFilter struct {
	Type   string
	Method string
	Limit  int
}

// LedgerRepository is the store capability the ledger core is built on: read
// accounts (optionally locked for the duration of a transaction), write
// accounts and log entries, and run a function inside one atomic store
// transaction via ExecuteInTransaction.
type LedgerRepository interface {
	CreateAccount(acct *models.Account) error
	GetAccount(userID string) (*models.Account, error)
	// GetAccountForUpdate reads the account's current state inside the
	// enclosing transaction, holding a row lock until commit. Mutators must
	// use this, never a value read before the transaction began.
	GetAccountForUpdate(userID string) (*models.Account, error)
	// ResolveAccount finds the single account matching a username or email.
	ResolveAccount(handle string) (*models.Account, error)
	SaveAccount(acct *models.Account) error

	CreateEntry(entry *models.Transaction) error
	GetEntry(id uint) (*models.Transaction, error)
	GetEntriesByReference(reference string) ([]models.Transaction, error)
	// AdvanceEntryStatus moves a PENDING entry to a terminal status. Entries
	// already in a terminal status are never touched; ErrEntryFinalized is
	// returned instead.
	AdvanceEntryStatus(id uint, status string, metadata models.JSON) error

	ListEntries(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)
	ListAllEntries(ctx context.Context, userID string) ([]models.Transaction, error)
	ListPendingReview(ctx context.Context, f PendingFilter) ([]models.Transaction, error)
	ListStalePending(ctx context.Context, before time.Time) ([]models.Transaction, error)

	ExecuteInTransaction(fn func(LedgerRepository) error) error
}
