package transfer

import "github.com/shopspring/decimal"

// FeePolicy is lookup data, not logic: peer transfers inside the platform are
// free, bank-destination transfers pay a flat fee unless the destination bank
// is in the zero-fee set.
type FeePolicy struct {
	BankTransferFee decimal.Decimal
	ZeroFeeBanks    map[string]bool
}

// DefaultFeePolicy mirrors the production fee table.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		BankTransferFee: decimal.NewFromInt(25),
		ZeroFeeBanks: map[string]bool{
			"090267": true, // Kuda
			"100004": true, // Opay
			"100033": true, // Palmpay
		},
	}
}

// BankFee returns the fee for a transfer to the given bank code.
func (p FeePolicy) BankFee(bankCode string) decimal.Decimal {
	if p.ZeroFeeBanks[bankCode] {
		return decimal.Zero
	}
	return p.BankTransferFee
}
