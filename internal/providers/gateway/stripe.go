package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"github.com/shopspring/decimal"
)

// StripeVerifier confirms card top-ups by retrieving the PaymentIntent the
// reference names.
type StripeVerifier struct {
	api *client.API
}

func NewStripeVerifier(secretKey string) *StripeVerifier {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeVerifier{api: api}
}

func (v *StripeVerifier) VerifyCharge(ctx context.Context, reference string) (*Charge, error) {
	pi, err := v.api.PaymentIntents.Get(reference, nil)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrChargeNotFound
		}
		return nil, fmt.Errorf("stripe verification failed: %w", err)
	}

	return &Charge{
		Reference: pi.ID,
		Amount:    decimal.NewFromInt(pi.Amount).Div(decimal.NewFromInt(100)),
		Currency:  strings.ToUpper(string(pi.Currency)),
		Paid:      pi.Status == stripe.PaymentIntentStatusSucceeded,
		Channel:   "card",
	}, nil
}
