// Package bank resolves destination account names before a bank transfer or
// payout. Display only; it never mutates balances.
package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrAccountNotFound  = errors.New("bank account not found")
	ErrResolverProtocol = errors.New("bank resolver returned a malformed response")
)

// Resolution is the display name the destination bank reports.
type Resolution struct {
	AccountName string `json:"account_name"`
}

type Resolver struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewResolver(baseURL, secretKey string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type resolveResponse struct {
	Status bool       `json:"status"`
	Data   Resolution `json:"data"`
}

// Resolve looks up the account name for an account number and bank code.
func (r *Resolver) Resolve(ctx context.Context, accountNumber, bankCode string) (*Resolution, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/bank/resolve?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.secretKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bank resolution failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrAccountNotFound
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var rr resolveResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolverProtocol, err)
	}
	if !rr.Status || rr.Data.AccountName == "" {
		return nil, ErrAccountNotFound
	}
	return &rr.Data, nil
}
