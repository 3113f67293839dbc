package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
)

func mustPolicyID(t *testing.T) id.PolicyID {
	t.Helper()
	return id.PolicyID(uuid.New())
}

func TestCanPay(t *testing.T) {
	t.Run("only active policies accept payments", func(t *testing.T) {
		assert.True(t, StatusActive.CanPay())

		for _, s := range []PolicyStatus{
			StatusPendingApproval,
			StatusWithdrawalRequested,
			StatusApprovedWithdrawal,
			StatusClaimRequested,
			StatusApprovedClaim,
			StatusCompletedTerm,
		} {
			assert.False(t, s.CanPay(), "status %s must not accept payments", s)
		}
	})

	t.Run("terminal statuses accept no further payments", func(t *testing.T) {
		assert.True(t, StatusApprovedWithdrawal.IsTerminalForPayments())
		assert.True(t, StatusApprovedClaim.IsTerminalForPayments())
		assert.True(t, StatusCompletedTerm.IsTerminalForPayments())
		assert.False(t, StatusActive.IsTerminalForPayments())
		assert.False(t, StatusPendingApproval.IsTerminalForPayments())
	})
}

func TestCanClaimAndWithdraw(t *testing.T) {
	assert.True(t, StatusActive.CanClaim())
	assert.True(t, StatusActive.CanWithdraw())

	assert.False(t, StatusCompletedTerm.CanClaim())
	assert.False(t, StatusApprovedWithdrawal.CanWithdraw())
	assert.False(t, StatusClaimRequested.CanClaim())
	assert.False(t, StatusWithdrawalRequested.CanWithdraw())
}

func TestCanTransition(t *testing.T) {
	t.Run("legal paths", func(t *testing.T) {
		assert.True(t, StatusPendingApproval.CanTransition(StatusActive))
		assert.True(t, StatusActive.CanTransition(StatusWithdrawalRequested))
		assert.True(t, StatusActive.CanTransition(StatusClaimRequested))
		assert.True(t, StatusActive.CanTransition(StatusCompletedTerm))
		assert.True(t, StatusWithdrawalRequested.CanTransition(StatusApprovedWithdrawal))
		assert.True(t, StatusClaimRequested.CanTransition(StatusApprovedClaim))
	})

	t.Run("self transition is allowed for idempotent status PUT", func(t *testing.T) {
		assert.True(t, StatusCompletedTerm.CanTransition(StatusCompletedTerm))
		assert.True(t, StatusActive.CanTransition(StatusActive))
	})

	t.Run("illegal paths", func(t *testing.T) {
		assert.False(t, StatusCompletedTerm.CanTransition(StatusActive))
		assert.False(t, StatusApprovedWithdrawal.CanTransition(StatusActive))
		assert.False(t, StatusPendingApproval.CanTransition(StatusCompletedTerm))
		assert.False(t, StatusActive.CanTransition(StatusApprovedWithdrawal))
		assert.False(t, StatusActive.CanTransition(StatusApprovedClaim))
	})
}

func TestParsePaymentInterval(t *testing.T) {
	t.Run("accepts the three recognized intervals", func(t *testing.T) {
		for raw, multiplier := range map[string]int{
			"YEARLY":      1,
			"HALF_YEARLY": 2,
			"QUARTERLY":   4,
		} {
			p, err := ParsePaymentInterval(raw)
			require.NoError(t, err)
			assert.Equal(t, multiplier, p.Multiplier())
		}
	})

	t.Run("rejects empty and unknown values", func(t *testing.T) {
		_, err := ParsePaymentInterval("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = ParsePaymentInterval("MONTHLY")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestPolicyValidate(t *testing.T) {
	valid := func() *Policy {
		return &Policy{
			ID:                    mustPolicyID(t),
			TotalInvestmentAmount: decimal.NewFromInt(100000),
			PolicyTerm:            5,
			PaymentInterval:       IntervalQuarterly,
			Status:                StatusActive,
		}
	}

	t.Run("valid policy passes", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("non-positive term is an invalid schedule", func(t *testing.T) {
		p := valid()
		p.PolicyTerm = 0
		assert.True(t, dErrors.HasCode(p.Validate(), dErrors.CodeInvalidSchedule))
	})

	t.Run("non-positive amount is an invalid schedule", func(t *testing.T) {
		p := valid()
		p.TotalInvestmentAmount = decimal.Zero
		assert.True(t, dErrors.HasCode(p.Validate(), dErrors.CodeInvalidSchedule))
	})

	t.Run("unknown interval is an invalid schedule", func(t *testing.T) {
		p := valid()
		p.PaymentInterval = "MONTHLY"
		assert.True(t, dErrors.HasCode(p.Validate(), dErrors.CodeInvalidSchedule))
	})
}
