// Package gateway verifies payment-gateway charges server-to-server before
// the funding flow credits a wallet. The client-reported reference is never
// trusted on its own.
package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrChargeNotFound  = errors.New("charge reference not found")
	ErrGatewayProtocol = errors.New("gateway returned a malformed response")
)

// Charge is the gateway's authoritative view of a payment.
type Charge struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Paid      bool
	Channel   string
}

// Verifier confirms a charge directly with the gateway. Implementations:
// the REST verifier for the hosted-checkout gateway and the Stripe verifier
// for card payments.
type Verifier interface {
	VerifyCharge(ctx context.Context, reference string) (*Charge, error)
}
