// Package gateway adapts the external payment gateway. The gateway's
// synchronous response only acknowledges submission; the final outcome of a
// charge always arrives later on the webhook.
package gateway

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Charger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	dErrors "securelife/pkg/domain-errors"
)

// ChargeAck is the gateway's synchronous acknowledgement. Reference
// correlates the later webhook confirmation with the submitted charge.
type ChargeAck struct {
	Reference string
	Status    string
}

// Charger submits charges to the gateway.
type Charger interface {
	Charge(ctx context.Context, amount decimal.Decimal, paymentMethodToken string) (*ChargeAck, error)
}

// Client is the HTTP implementation of Charger.
type Client struct {
	baseURL string
	client  *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// NewClient constructs a gateway client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("gateway client: empty base URL")
	}
	c := &Client{
		baseURL: baseURL,
		// The gateway call is the slowest hop in a charge; give it room
		// without exceeding the server's write timeout.
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chargeRequest struct {
	Amount             string `json:"amount"`
	PaymentMethodToken string `json:"paymentMethodToken"`
}

type chargeResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Charge submits the amount against the tokenized payment method. Any
// rejection, transport failure or malformed acknowledgement surfaces as a
// payment_gateway_error; callers never see raw gateway details.
func (c *Client) Charge(ctx context.Context, amount decimal.Decimal, paymentMethodToken string) (*ChargeAck, error) {
	if paymentMethodToken == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payment method token is required")
	}

	body, err := json.Marshal(chargeRequest{
		Amount:             amount.StringFixed(2),
		PaymentMethodToken: paymentMethodToken,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	url := c.baseURL + "/payment-gateway/charge"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePaymentGateway, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, dErrors.Newf(dErrors.CodePaymentGateway, "payment gateway returned %d", resp.StatusCode)
	}

	var ack chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePaymentGateway, "decode gateway acknowledgement")
	}
	if ack.Reference == "" {
		return nil, dErrors.New(dErrors.CodePaymentGateway, "gateway acknowledgement missing reference")
	}

	return &ChargeAck{Reference: ack.Reference, Status: ack.Status}, nil
}
