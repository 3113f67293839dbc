package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
)

// PaymentInterval determines how many installments a policy year is split into.
type PaymentInterval string

const (
	IntervalYearly     PaymentInterval = "YEARLY"
	IntervalHalfYearly PaymentInterval = "HALF_YEARLY"
	IntervalQuarterly  PaymentInterval = "QUARTERLY"
)

// validIntervals is the single source of truth for recognized intervals.
var validIntervals = map[PaymentInterval]int{
	IntervalYearly:     1,
	IntervalHalfYearly: 2,
	IntervalQuarterly:  4,
}

// ParsePaymentInterval constructs a PaymentInterval from external input.
func ParsePaymentInterval(s string) (PaymentInterval, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "payment interval cannot be empty")
	}
	p := PaymentInterval(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid payment interval: must be YEARLY, HALF_YEARLY or QUARTERLY")
	}
	return p, nil
}

// IsValid checks if the interval is one of the supported enum values.
func (p PaymentInterval) IsValid() bool {
	_, ok := validIntervals[p]
	return ok
}

// Multiplier returns the number of installments per policy year.
// Returns 0 for unrecognized intervals; callers must validate first.
func (p PaymentInterval) Multiplier() int {
	return validIntervals[p]
}

// String returns the string representation.
func (p PaymentInterval) String() string {
	return string(p)
}

// Policy is the read model supplied by the policy collaborator. The core
// treats every field as immutable input except Status, which only lifecycle
// transitions may advance (through the collaborator, never locally).
type Policy struct {
	ID                    id.PolicyID     `json:"policy_id"`
	TotalInvestmentAmount decimal.Decimal `json:"total_investment_amount"`
	PolicyTerm            int             `json:"policy_term"`
	PaymentInterval       PaymentInterval `json:"payment_interval"`
	Status                PolicyStatus    `json:"status"`
	StartDate             time.Time       `json:"start_date"`
}

// Validate enforces the invariants a usable policy must satisfy. A policy
// failing these cannot produce a schedule.
func (p *Policy) Validate() error {
	if p.ID.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "policy id cannot be nil")
	}
	if p.PolicyTerm <= 0 {
		return dErrors.New(dErrors.CodeInvalidSchedule, "policy term must be positive")
	}
	if !p.PaymentInterval.IsValid() {
		return dErrors.New(dErrors.CodeInvalidSchedule, "invalid payment interval")
	}
	if p.TotalInvestmentAmount.LessThanOrEqual(decimal.Zero) {
		return dErrors.New(dErrors.CodeInvalidSchedule, "total investment amount must be positive")
	}
	if !p.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid policy status")
	}
	return nil
}
