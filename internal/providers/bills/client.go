// Package bills is the adapter for the VTU/bills provider that delivers
// airtime, data, cable, electricity and education credit. It only maps
// requests and classifies failures; money movement stays in the orchestrator.
package bills

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProviderProtocol covers malformed responses: HTML error pages,
	// truncated bodies, anything that is not the documented JSON shape.
	ErrProviderProtocol = errors.New("provider returned a malformed response")
	// ErrProviderTimeout is returned once the bounded retries are exhausted.
	// Delivery state is unknown; callers must treat it as failed-for-refund.
	ErrProviderTimeout = errors.New("provider request timed out")
)

// RejectedError is an explicit provider rejection with its own message.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider rejected request: %s", e.Message)
	}
	return "provider rejected request"
}

const successCode = "000"

// PayRequest is the provider's purchase payload. Target is the phone number,
// meter number or smartcard the credit is delivered to.
type PayRequest struct {
	RequestID string          `json:"request_id"`
	ServiceID string          `json:"serviceID"`
	Target    string          `json:"billersCode"`
	Amount    decimal.Decimal `json:"amount"`
	Variation string          `json:"variation_code,omitempty"`
}

// PayResponse is the provider's documented success/error envelope.
type PayResponse struct {
	Code        string                 `json:"code"`
	Description string                 `json:"response_description"`
	Content     map[string]interface{} `json:"content"`
}

type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient *http.Client
}

// NewClient creates a bills provider client. maxRetries bounds retries on
// network timeouts only; rejections and protocol errors are never retried.
func NewClient(baseURL, apiKey string, maxRetries int, timeout time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Pay submits one purchase attempt. The three failure classes are surfaced
// distinctly: ErrProviderTimeout, ErrProviderProtocol, and *RejectedError.
func (c *Client) Pay(ctx context.Context, req PayRequest) (*PayResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pay request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.post(ctx, "/pay", payload)
		if err != nil {
			if isTimeout(err) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("provider request failed: %w", err)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, lastErr)
}

func (c *Client) post(ctx context.Context, path string, payload []byte) (*PayResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	// The provider is known to answer with HTML error pages under load.
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: status %d, body %q", ErrProviderProtocol, httpResp.StatusCode, snippet(body))
	}

	var resp PayResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderProtocol, err)
	}
	if resp.Code != successCode {
		return nil, &RejectedError{Code: resp.Code, Message: resp.Description}
	}
	return &resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func snippet(body []byte) string {
	const max = 120
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
