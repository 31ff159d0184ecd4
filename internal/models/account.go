package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account statuses
const (
	AccountStatusActive = "active"
	AccountStatusFrozen = "frozen"
)

// BalanceField names one of the balance buckets an account carries.
// Purchases and transfers spend from the wallet; savings and commission
// funds move back through the wallet first.
type BalanceField string

const (
	FieldWallet     BalanceField = "wallet_balance"
	FieldSavings    BalanceField = "savings_balance"
	FieldCommission BalanceField = "commission_balance"
)

// Account is the per-user balance record. Balances are mutated only through
// the ledger service and never go below zero.
type Account struct {
	ID                uint            `gorm:"primarykey" json:"-"`
	UserID            string          `gorm:"uniqueIndex;not null" json:"user_id"`
	Username          string          `gorm:"uniqueIndex" json:"username"`
	Email             string          `gorm:"uniqueIndex" json:"email"`
	WalletBalance     decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"wallet_balance"`
	SavingsBalance    decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"savings_balance"`
	CommissionBalance decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"commission_balance"`
	PinHash           string          `gorm:"not null;default:''" json:"-"`
	Status            string          `gorm:"not null;default:'active'" json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Balance returns the named bucket's current value.
func (a *Account) Balance(field BalanceField) decimal.Decimal {
	switch field {
	case FieldSavings:
		return a.SavingsBalance
	case FieldCommission:
		return a.CommissionBalance
	default:
		return a.WalletBalance
	}
}

// SetBalance overwrites the named bucket. Callers are expected to have
// validated the new value inside a store transaction.
func (a *Account) SetBalance(field BalanceField, v decimal.Decimal) {
	switch field {
	case FieldSavings:
		a.SavingsBalance = v
	case FieldCommission:
		a.CommissionBalance = v
	default:
		a.WalletBalance = v
	}
}
