package errors

var (
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient balance",
	}
	ErrLedgerConflict = &DomainError{
		Code:    "LEDGER_CONFLICT",
		Message: "concurrent update conflict, try again",
	}
	ErrLedgerWriteFailed = &DomainError{
		Code:    "LEDGER_WRITE_FAILED",
		Message: "ledger store unavailable, operation was not applied",
	}
	ErrAccountNotFound = &DomainError{
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
	}
	ErrAccountFrozen = &DomainError{
		Code:    "ACCOUNT_FROZEN",
		Message: "account is frozen",
	}
	ErrRecipientNotFound = &DomainError{
		Code:    "RECIPIENT_NOT_FOUND",
		Message: "recipient not found",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrEntryNotFound = &DomainError{
		Code:    "ENTRY_NOT_FOUND",
		Message: "transaction entry not found",
	}
	ErrEntryFinalized = &DomainError{
		Code:    "ENTRY_FINALIZED",
		Message: "transaction entry is already in a terminal status",
	}
)
