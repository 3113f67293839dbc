// Package policy adapts the external policy-management collaborator. The
// core never owns policy records; it reads them and requests lifecycle
// transitions through this client.
package policy

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Reader,StatusWriter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"securelife/internal/policy/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
)

// Reader fetches policies from the collaborator.
type Reader interface {
	GetPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
}

// StatusWriter requests lifecycle transitions. The PUT is idempotent: a
// transition to the current status is a no-op on the collaborator's side.
type StatusWriter interface {
	PutStatus(ctx context.Context, policyID id.PolicyID, status models.PolicyStatus) error
}

// Client is the HTTP implementation of Reader and StatusWriter.
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

// NewClient constructs a policy client for the given collaborator base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("policy client: empty base URL")
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

// policyPayload mirrors the collaborator's wire format.
type policyPayload struct {
	PolicyID              string `json:"policyId"`
	TotalInvestmentAmount string `json:"totalInvestmentAmount"`
	PolicyTerm            int    `json:"policyTerm"`
	PaymentInterval       string `json:"paymentInterval"`
	Status                string `json:"status"`
	StartDate             string `json:"startDate"`
}

// GetPolicy fetches a policy by id.
func (c *Client) GetPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	url := fmt.Sprintf("%s/policy/%s", c.baseURL, policyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build policy request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "policy service unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, dErrors.Newf(dErrors.CodeNotFound, "policy %s not found", policyID)
	default:
		return nil, dErrors.Newf(dErrors.CodeInternal, "policy service returned %d", resp.StatusCode)
	}

	var payload policyPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode policy response")
	}
	return payload.toPolicy()
}

// PutStatus requests a lifecycle transition on the collaborator.
func (c *Client) PutStatus(ctx context.Context, policyID id.PolicyID, status models.PolicyStatus) error {
	if !status.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid policy status")
	}

	body, err := json.Marshal(map[string]string{"status": status.String()})
	if err != nil {
		return fmt.Errorf("marshal status payload: %w", err)
	}

	url := fmt.Sprintf("%s/policy/%s/status", c.baseURL, policyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "policy service unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return dErrors.Newf(dErrors.CodeNotFound, "policy %s not found", policyID)
	case http.StatusConflict:
		return dErrors.Newf(dErrors.CodeUnauthorizedState, "policy %s rejected transition to %s", policyID, status)
	default:
		return dErrors.Newf(dErrors.CodeInternal, "policy service returned %d", resp.StatusCode)
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "amount cannot be empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "invalid amount")
	}
	return d, nil
}

func (p policyPayload) toPolicy() (*models.Policy, error) {
	policyID, err := id.ParsePolicyID(p.PolicyID)
	if err != nil {
		return nil, err
	}
	interval, err := models.ParsePaymentInterval(p.PaymentInterval)
	if err != nil {
		return nil, err
	}
	status, err := models.ParsePolicyStatus(p.Status)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(p.TotalInvestmentAmount)
	if err != nil {
		return nil, err
	}

	policy := &models.Policy{
		ID:                    policyID,
		TotalInvestmentAmount: amount,
		PolicyTerm:            p.PolicyTerm,
		PaymentInterval:       interval,
		Status:                status,
	}
	if p.StartDate != "" {
		start, err := time.Parse(time.RFC3339, p.StartDate)
		if err != nil {
			// The collaborator also emits bare dates.
			start, err = time.Parse("2006-01-02", p.StartDate)
			if err != nil {
				return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid policy start date")
			}
		}
		policy.StartDate = start
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}
