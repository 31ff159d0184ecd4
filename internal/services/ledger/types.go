package ledger

import (
	"obata/internal/models"

	"github.com/shopspring/decimal"
)

// Metadata keys the orchestrators stamp on log entries. The audit replay
// uses them to attribute amounts to balance buckets.
const (
	MetaDirection    = "direction"
	MetaSource       = "source"
	MetaCounterparty = "counterparty"
	MetaProvider     = "provider"
	MetaProof        = "proof"
	MetaRefundOf     = "refund_of"

	DirectionDebit  = "debit"
	DirectionCredit = "credit"
)

// Delta is one signed balance movement on a single bucket. Negative amounts
// are debits and are checked against the current balance inside the store
// transaction.
type Delta struct {
	Field  models.BalanceField
	Amount decimal.Decimal
}

// AccountDeltas groups the deltas applied to one account.
type AccountDeltas struct {
	UserID string
	Deltas []Delta
}

// StatusChange advances an existing PENDING entry to a terminal status as
// part of a mutation, so a compensating refund and the failure it compensates
// commit together.
type StatusChange struct {
	EntryID  uint
	Status   string
	Metadata models.JSON
}

// ReferenceGuard aborts a mutation when a log entry with the given reference
// (and type, when set) already exists. The check runs inside the store
// transaction, so two concurrent mutations guarding the same reference cannot
// both commit.
type ReferenceGuard struct {
	Reference string
	Type      string
}

// Mutation is one atomic ledger operation: every delta, every log entry and
// every status change commits together or none of it does.
type Mutation struct {
	Accounts      []AccountDeltas
	Entries       []*models.Transaction
	StatusChanges []StatusChange
	Guards        []ReferenceGuard
}

// Config holds mutator tuning knobs.
type Config struct {
	// MaxRetries bounds retries on store-level write conflicts before the
	// operation surfaces ErrLedgerConflict.
	MaxRetries int
}

const DefaultMaxRetries = 3

// Debit builds a negative delta for amount on field.
func Debit(field models.BalanceField, amount decimal.Decimal) Delta {
	return Delta{Field: field, Amount: amount.Neg()}
}

// Credit builds a positive delta for amount on field.
func Credit(field models.BalanceField, amount decimal.Decimal) Delta {
	return Delta{Field: field, Amount: amount}
}
