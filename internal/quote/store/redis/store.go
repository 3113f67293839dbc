// Package redis provides a Redis-backed quote store for distributed
// deployments. Expiry is delegated to Redis TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"securelife/internal/quote"
	"securelife/internal/quote/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	"securelife/pkg/requestcontext"
)

const quoteKeyPrefix = "quote:"

// Store persists quotes in Redis with a TTL matching the quote's expiry.
type Store struct {
	client *redis.Client
}

var _ quote.Store = (*Store)(nil)

// NewStore constructs a Redis-backed quote store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

type quotePayload struct {
	ID               string `json:"id"`
	PolicyID         string `json:"policyId"`
	InstallmentIndex int    `json:"installmentIndex"`
	BaseAmount       string `json:"baseAmount"`
	TaxRate          string `json:"taxRate"`
	TotalAmount      string `json:"totalAmount"`
	IssuedAt         string `json:"issuedAt"`
	ExpiresAt        string `json:"expiresAt"`
}

// Save persists the quote with SET EX so Redis expires it on time.
func (s *Store) Save(ctx context.Context, q *models.Quote) error {
	if q == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "quote is required")
	}

	ttl := q.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "quote already expired")
	}

	payload := quotePayload{
		ID:               q.ID.String(),
		PolicyID:         q.PolicyID.String(),
		InstallmentIndex: q.InstallmentIndex,
		BaseAmount:       q.BaseAmount.String(),
		TaxRate:          q.TaxRate.String(),
		TotalAmount:      q.TotalAmount.String(),
		IssuedAt:         q.IssuedAt.UTC().Format(time.RFC3339Nano),
		ExpiresAt:        q.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal quote")
	}

	return s.client.Set(ctx, quoteKeyPrefix+q.ID.String(), raw, ttl).Err()
}

// Get returns the quote; a missing key (unknown or TTL-expired) is not found.
func (s *Store) Get(ctx context.Context, quoteID id.QuoteID) (*models.Quote, error) {
	raw, err := s.client.Get(ctx, quoteKeyPrefix+quoteID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, dErrors.New(dErrors.CodeNotFound, "quote not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read quote")
	}

	var payload quotePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "unmarshal quote")
	}
	return payload.toQuote()
}

// Delete removes a quote. Deleting an unknown quote is a no-op.
func (s *Store) Delete(ctx context.Context, quoteID id.QuoteID) error {
	return s.client.Del(ctx, quoteKeyPrefix+quoteID.String()).Err()
}

func (p quotePayload) toQuote() (*models.Quote, error) {
	quoteID, err := id.ParseQuoteID(p.ID)
	if err != nil {
		return nil, err
	}
	policyID, err := id.ParsePolicyID(p.PolicyID)
	if err != nil {
		return nil, err
	}
	base, err := decimal.NewFromString(p.BaseAmount)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInternal, "corrupt quote base amount")
	}
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInternal, "corrupt quote tax rate")
	}
	total, err := decimal.NewFromString(p.TotalAmount)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInternal, "corrupt quote total")
	}
	issuedAt, err := time.Parse(time.RFC3339Nano, p.IssuedAt)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInternal, "corrupt quote issue time")
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, p.ExpiresAt)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInternal, "corrupt quote expiry")
	}

	return &models.Quote{
		ID:               quoteID,
		PolicyID:         policyID,
		InstallmentIndex: p.InstallmentIndex,
		BaseAmount:       base,
		TaxRate:          rate,
		TotalAmount:      total,
		IssuedAt:         issuedAt,
		ExpiresAt:        expiresAt,
	}, nil
}
