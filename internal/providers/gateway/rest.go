package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// RESTVerifier talks to the hosted-checkout gateway's verification endpoint:
// GET /transaction/verify/{reference} with a bearer secret key. Amounts come
// back in minor units (kobo).
type RESTVerifier struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewRESTVerifier(baseURL, secretKey string, timeout time.Duration) *RESTVerifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTVerifier{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Channel  string `json:"channel"`
	} `json:"data"`
}

func (v *RESTVerifier) VerifyCharge(ctx context.Context, reference string) (*Charge, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", v.baseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+v.secretKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway verification failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrChargeNotFound
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayProtocol, resp.StatusCode)
	}

	var vr verifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayProtocol, err)
	}
	if !vr.Status {
		return nil, fmt.Errorf("gateway rejected verification: %s", vr.Message)
	}

	return &Charge{
		Reference: reference,
		Amount:    decimal.NewFromInt(vr.Data.Amount).Div(decimal.NewFromInt(100)),
		Currency:  vr.Data.Currency,
		Paid:      vr.Data.Status == "success",
		Channel:   vr.Data.Channel,
	}, nil
}
