// Package tax adapts the external tax-settings collaborator. The rate is a
// global setting maintained elsewhere; quotes read it at issue time so a rate
// change never silently reprices an already-quoted installment.
package tax

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks RateReader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	dErrors "securelife/pkg/domain-errors"
)

// RateReader fetches the current tax rate as a percentage (5 means 5%).
type RateReader interface {
	GetTaxRate(ctx context.Context) (decimal.Decimal, error)
}

// Client is the HTTP implementation of RateReader.
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

// NewClient constructs a tax client for the given collaborator base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("tax client: empty base URL")
	}
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type taxPayload struct {
	TaxRate json.Number `json:"taxRate"`
}

// GetTaxRate fetches the current rate.
func (c *Client) GetTaxRate(ctx context.Context) (decimal.Decimal, error) {
	url := c.baseURL + "/tax-setting"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build tax request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, dErrors.Wrap(err, dErrors.CodeInternal, "tax service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, dErrors.Newf(dErrors.CodeInternal, "tax service returned %d", resp.StatusCode)
	}

	var payload taxPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, dErrors.Wrap(err, dErrors.CodeInternal, "decode tax response")
	}

	rate, err := decimal.NewFromString(payload.TaxRate.String())
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeInternal, "tax service returned invalid rate")
	}
	if rate.IsNegative() {
		return decimal.Zero, dErrors.New(dErrors.CodeInternal, "tax service returned negative rate")
	}
	return rate, nil
}
