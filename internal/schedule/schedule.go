// Package schedule derives a policy's installment schedule from its term,
// payment interval and total investment amount. The calculator is a pure
// function: no state, safe for concurrent use.
package schedule

import (
	"github.com/shopspring/decimal"

	"securelife/internal/policy/models"
	dErrors "securelife/pkg/domain-errors"
)

// Schedule is the derived payment plan for a policy. Installments are
// 1-based ordinals; ordinals 1..N-1 owe DueAmount, ordinal N owes
// FinalDueAmount.
//
// Rounding rule: DueAmount is the total divided by the installment count,
// rounded half-up to the currency's minor unit (2 decimal places). The
// rounding remainder is folded into the final installment so the schedule
// sums to the total investment amount exactly.
type Schedule struct {
	TotalInstallments int
	DueAmount         decimal.Decimal
	FinalDueAmount    decimal.Decimal
	TotalInvestment   decimal.Decimal
}

// Compute derives the schedule.
//
// Errors with CodeInvalidSchedule when the term or amount is non-positive,
// the interval is unrecognized, or the amount is too small to yield a
// positive final installment after rounding.
func Compute(policyTerm int, interval models.PaymentInterval, totalInvestment decimal.Decimal) (*Schedule, error) {
	if policyTerm <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidSchedule, "policy term must be positive")
	}
	if !interval.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidSchedule, "invalid payment interval")
	}
	if totalInvestment.LessThanOrEqual(decimal.Zero) {
		return nil, dErrors.New(dErrors.CodeInvalidSchedule, "total investment amount must be positive")
	}

	total := policyTerm * interval.Multiplier()
	count := decimal.NewFromInt(int64(total))

	// DivRound rounds half away from zero, which is round-half-up for the
	// positive amounts enforced above.
	due := totalInvestment.DivRound(count, 2)
	final := totalInvestment.Sub(due.Mul(decimal.NewFromInt(int64(total - 1))))

	if final.LessThanOrEqual(decimal.Zero) {
		return nil, dErrors.New(dErrors.CodeInvalidSchedule, "amount too small to split into positive installments")
	}

	return &Schedule{
		TotalInstallments: total,
		DueAmount:         due,
		FinalDueAmount:    final,
		TotalInvestment:   totalInvestment,
	}, nil
}

// ComputeForPolicy derives the schedule from a policy read model.
func ComputeForPolicy(p *models.Policy) (*Schedule, error) {
	if p == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy is required")
	}
	return Compute(p.PolicyTerm, p.PaymentInterval, p.TotalInvestmentAmount)
}

// AmountDue returns the due amount for a 1-based installment ordinal.
// Errors with CodeNotFound outside [1, TotalInstallments].
func (s *Schedule) AmountDue(index int) (decimal.Decimal, error) {
	if index < 1 || index > s.TotalInstallments {
		return decimal.Zero, dErrors.Newf(dErrors.CodeNotFound, "installment %d out of range [1, %d]", index, s.TotalInstallments)
	}
	if index == s.TotalInstallments {
		return s.FinalDueAmount, nil
	}
	return s.DueAmount, nil
}

// Sum returns the exact sum of all installment due amounts. Always equals
// TotalInvestment; exposed for property tests and audit reporting.
func (s *Schedule) Sum() decimal.Decimal {
	return s.DueAmount.
		Mul(decimal.NewFromInt(int64(s.TotalInstallments - 1))).
		Add(s.FinalDueAmount)
}
