package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "securelife/pkg/domain"
)

// Quote is a priced offer for one installment. The quoted total is what the
// gateway will be charged; between issue and charge the price cannot drift
// even if the tax rate changes. Quotes expire so a stale price can never be
// charged.
type Quote struct {
	ID               id.QuoteID
	PolicyID         id.PolicyID
	InstallmentIndex int
	BaseAmount       decimal.Decimal
	TaxRate          decimal.Decimal
	TotalAmount      decimal.Decimal
	IssuedAt         time.Time
	ExpiresAt        time.Time
}

// Expired reports whether the quote is no longer chargeable at the given time.
func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// Matches reports whether the quote was issued for the given policy and
// installment. Charge re-validation uses it to reject a quote replayed
// against a different target.
func (q *Quote) Matches(policyID id.PolicyID, index int) bool {
	return q.PolicyID == policyID && q.InstallmentIndex == index
}
