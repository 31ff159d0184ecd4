package ledger

import (
	"errors"
	"fmt"

	domain "obata/internal/errors"
	"obata/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMutation    = errors.New("invalid mutation")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrDuplicateReference = errors.New("reference already recorded")
)

// InsufficientFundsError reports the bucket and requested debit that failed
// the precondition check. The whole mutation is discarded when it occurs.
type InsufficientFundsError struct {
	UserID    string
	Field     models.BalanceField
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s has %s on %s, requested %s",
		e.UserID, e.Available, e.Field, e.Requested)
}

// Is makes errors.Is(err, domain.ErrInsufficientFunds) work for callers that
// only care about the class of failure.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == domain.ErrInsufficientFunds
}
