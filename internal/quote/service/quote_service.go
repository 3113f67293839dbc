// Package service prices installments into time-limited quotes.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"securelife/internal/platform/metrics"
	"securelife/internal/policy"
	"securelife/internal/quote"
	"securelife/internal/quote/models"
	"securelife/internal/schedule"
	"securelife/internal/tax"
	id "securelife/pkg/domain"
	audit "securelife/pkg/platform/audit"
	"securelife/pkg/platform/audit/publisher"
	"securelife/pkg/requestcontext"
)

var oneHundred = decimal.NewFromInt(100)

// Service issues quotes. A quote fixes the installment's base amount and the
// tax rate in force at issue time; the resulting total is what the gateway
// will be charged, valid until the quote expires.
type Service struct {
	policies policy.Reader
	rates    tax.RateReader
	store    quote.Store
	ttl      time.Duration
	logger   *slog.Logger

	metrics *metrics.Metrics
	auditor *publisher.Publisher
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditor wires the audit publisher.
func WithAuditor(p *publisher.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// NewService constructs a quote service. ttl must be positive.
func NewService(policies policy.Reader, rates tax.RateReader, store quote.Store, ttl time.Duration, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		policies: policies,
		rates:    rates,
		store:    store,
		ttl:      ttl,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices installment index of the given policy. The index must fall
// within the policy's schedule; the caller need not hold any lock since
// quoting never mutates the ledger.
func (s *Service) Quote(ctx context.Context, policyID id.PolicyID, index int) (*models.Quote, error) {
	p, err := s.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}

	sched, err := schedule.ComputeForPolicy(p)
	if err != nil {
		return nil, err
	}

	base, err := sched.AmountDue(index)
	if err != nil {
		return nil, err
	}

	rate, err := s.rates.GetTaxRate(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	q := &models.Quote{
		ID:               id.QuoteID(uuid.New()),
		PolicyID:         policyID,
		InstallmentIndex: index,
		BaseAmount:       base,
		TaxRate:          rate,
		TotalAmount:      totalWithTax(base, rate),
		IssuedAt:         now,
		ExpiresAt:        now.Add(s.ttl),
	}

	if err := s.store.Save(ctx, q); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "quote issued",
		slog.String("quote_id", q.ID.String()),
		slog.String("policy_id", policyID.String()),
		slog.Int("installment_index", index),
		slog.String("total_amount", q.TotalAmount.String()),
		slog.String("request_id", requestcontext.RequestID(ctx)))

	if s.metrics != nil {
		s.metrics.QuotesIssued.Inc()
	}
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			UserID:    requestcontext.UserID(ctx),
			Action:    string(audit.EventQuoteIssued),
			PolicyID:  policyID.String(),
			QuoteID:   q.ID.String(),
			Amount:    q.TotalAmount.String(),
			RequestID: requestcontext.RequestID(ctx),
			IP:        requestcontext.ClientIP(ctx),
			Device:    requestcontext.Device(ctx),
		})
	}

	return q, nil
}

// totalWithTax applies the percentage rate and rounds half up to cents.
func totalWithTax(base, rate decimal.Decimal) decimal.Decimal {
	taxAmount := base.Mul(rate).Div(oneHundred)
	return base.Add(taxAmount).Round(2)
}
