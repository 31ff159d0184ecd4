package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeFunding     = "FUNDING"
	TransactionTypeDebit       = "DEBIT"
	TransactionTypeCredit      = "CREDIT"
	TransactionTypeTransfer    = "TRANSFER"
	TransactionTypeWithdrawal  = "WITHDRAWAL"
	TransactionTypeCommission  = "COMMISSION"
	TransactionTypeAirtime     = "AIRTIME"
	TransactionTypeData        = "DATA"
	TransactionTypeCable       = "CABLE"
	TransactionTypeElectricity = "ELECTRICITY"
	TransactionTypeEducation   = "EDUCATION"
)

// Transaction statuses. PENDING may advance to any of the other three;
// SUCCESS, FAILED and REFUNDED are terminal.
const (
	StatusPending  = "PENDING"
	StatusSuccess  = "SUCCESS"
	StatusFailed   = "FAILED"
	StatusRefunded = "REFUNDED"
)

// Payment methods recorded on log entries.
const (
	MethodWallet  = "wallet"
	MethodGateway = "gateway"
	MethodManual  = "manual"
	MethodBank    = "bank"
)

// Transaction is one append-only ledger log entry. Amount is always the
// positive magnitude of the movement; direction is implied by Type and
// context. Both sides of a transfer, and a purchase and its refund, share one
// Reference. After insert only Status may change.
type Transaction struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	UserID      string          `gorm:"index;not null" json:"user_id"`
	Type        string          `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Status      string          `gorm:"not null;default:'PENDING'" json:"status"`
	Reference   string          `gorm:"index;not null" json:"reference"`
	Description string          `json:"description"`
	Method      string          `json:"method"`
	Fee         decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"fee"`
	Metadata    JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"date"`
	UpdatedAt   time.Time       `json:"-"`
}

// IsPurchaseType reports whether t is one of the bill/VTU purchase types
// whose stuck pending debits the reconciliation sweep may refund.
func IsPurchaseType(t string) bool {
	switch t {
	case TransactionTypeAirtime, TransactionTypeData, TransactionTypeCable,
		TransactionTypeElectricity, TransactionTypeEducation:
		return true
	}
	return false
}
