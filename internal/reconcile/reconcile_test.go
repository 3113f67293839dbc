package reconcile_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	ledger "securelife/internal/ledger/models"
	policy "securelife/internal/policy/models"
	"securelife/internal/reconcile"
	"securelife/internal/schedule"
	id "securelife/pkg/domain"
)

type ReconcileSuite struct {
	suite.Suite
	policyID id.PolicyID
	sched    schedule.Schedule
	base     time.Time
}

func TestReconcileSuite(t *testing.T) {
	suite.Run(t, new(ReconcileSuite))
}

func (s *ReconcileSuite) SetupTest() {
	s.policyID = id.PolicyID(uuid.New())
	sched, err := schedule.Compute(5, policy.IntervalQuarterly, decimal.RequireFromString("100000"))
	s.Require().NoError(err)
	s.sched = *sched
	s.base = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
}

func (s *ReconcileSuite) tx(status ledger.TransactionStatus, offset time.Duration) *ledger.Transaction {
	tx, err := ledger.NewTransaction(s.policyID, s.sched.DueAmount, status, uuid.NewString(), s.base.Add(offset))
	s.Require().NoError(err)
	return tx
}

func (s *ReconcileSuite) TestEmptyLedger() {
	result := reconcile.Reconcile(s.sched, nil)

	s.Len(result.Installments, 20)
	s.Equal(1, result.NextPendingIndex)
	s.False(result.FullyFunded())
	s.Empty(result.Overpayments)
	for _, inst := range result.Installments {
		s.Equal(reconcile.InstallmentPending, inst.Status)
	}
}

func (s *ReconcileSuite) TestThreeSucceededAdvancesToFour() {
	txs := []*ledger.Transaction{
		s.tx(ledger.StatusSucceeded, 0),
		s.tx(ledger.StatusSucceeded, time.Hour),
		s.tx(ledger.StatusSucceeded, 2*time.Hour),
	}

	result := reconcile.Reconcile(s.sched, txs)

	s.Equal(4, result.NextPendingIndex)
	for i := 0; i < 3; i++ {
		s.Equal(reconcile.InstallmentPaid, result.Installments[i].Status)
		s.Equal(txs[i].ID, result.Installments[i].TransactionID)
		s.Equal(txs[i].OccurredAt, result.Installments[i].PaidAt)
	}
	for i := 3; i < 20; i++ {
		s.Equal(reconcile.InstallmentPending, result.Installments[i].Status)
		s.True(result.Installments[i].TransactionID.IsZero())
	}
}

func (s *ReconcileSuite) TestFailedAndPendingNeverOccupySlots() {
	txs := []*ledger.Transaction{
		s.tx(ledger.StatusSucceeded, 0),
		s.tx(ledger.StatusFailed, time.Hour),
		s.tx(ledger.StatusPending, 2*time.Hour),
		s.tx(ledger.StatusSucceeded, 3*time.Hour),
	}

	result := reconcile.Reconcile(s.sched, txs)

	s.Equal(3, result.NextPendingIndex)
	s.Equal(reconcile.InstallmentPaid, result.Installments[0].Status)
	s.Equal(reconcile.InstallmentPaid, result.Installments[1].Status)
	// The second slot is funded by the fourth entry, the second SUCCEEDED one.
	s.Equal(txs[3].ID, result.Installments[1].TransactionID)
}

func (s *ReconcileSuite) TestFullyFunded() {
	txs := make([]*ledger.Transaction, 0, 20)
	for i := 0; i < 20; i++ {
		txs = append(txs, s.tx(ledger.StatusSucceeded, time.Duration(i)*time.Hour))
	}

	result := reconcile.Reconcile(s.sched, txs)

	s.Equal(0, result.NextPendingIndex)
	s.True(result.FullyFunded())
	s.Empty(result.Overpayments)
}

func (s *ReconcileSuite) TestExcessSucceededFlaggedNotErrored() {
	txs := make([]*ledger.Transaction, 0, 22)
	for i := 0; i < 22; i++ {
		txs = append(txs, s.tx(ledger.StatusSucceeded, time.Duration(i)*time.Hour))
	}

	result := reconcile.Reconcile(s.sched, txs)

	s.True(result.FullyFunded())
	s.Require().Len(result.Overpayments, 2)
	s.Equal(txs[20].ID, result.Overpayments[0].TransactionID)
	s.Equal(txs[21].ID, result.Overpayments[1].TransactionID)
}

func (s *ReconcileSuite) TestFinalSlotCarriesResidualAmount() {
	sched, err := schedule.Compute(1, policy.IntervalQuarterly, decimal.RequireFromString("1000"))
	s.Require().NoError(err)

	result := reconcile.Reconcile(*sched, nil)

	s.Require().Len(result.Installments, 4)
	s.True(result.Installments[0].DueAmount.Equal(decimal.RequireFromString("250")))
	s.True(result.Installments[3].DueAmount.Equal(sched.FinalDueAmount))
}

// TestIdempotentAndMonotone replays a growing ledger and checks that each
// reconciliation is stable under repetition and that NextPendingIndex only
// ever moves forward as SUCCEEDED entries accumulate.
func (s *ReconcileSuite) TestIdempotentAndMonotone() {
	var txs []*ledger.Transaction
	prev := 1
	for i := 0; i < 20; i++ {
		txs = append(txs, s.tx(ledger.StatusSucceeded, time.Duration(i)*time.Minute))

		first := reconcile.Reconcile(s.sched, txs)
		second := reconcile.Reconcile(s.sched, txs)
		s.Equal(first, second)

		if first.NextPendingIndex != 0 {
			s.GreaterOrEqual(first.NextPendingIndex, prev)
			prev = first.NextPendingIndex
		}
	}
}
