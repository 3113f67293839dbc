// Package reconcile derives the paid/pending state of every installment from
// the transaction ledger. Installment state is never persisted; it is
// recomputed from the schedule and the chronological ledger on every read, so
// the ledger stays the single source of truth.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"securelife/internal/ledger/models"
	"securelife/internal/schedule"
	id "securelife/pkg/domain"
)

// InstallmentStatus is the derived state of one schedule slot.
type InstallmentStatus string

const (
	InstallmentPaid    InstallmentStatus = "PAID"
	InstallmentPending InstallmentStatus = "PENDING"
)

// Installment is one derived schedule slot. When Status is PAID, the
// transaction fields identify the ledger entry that funded it.
type Installment struct {
	Index         int
	DueAmount     decimal.Decimal
	Status        InstallmentStatus
	TransactionID id.TransactionID
	PaidAmount    decimal.Decimal
	PaidAt        time.Time
}

// Overpayment is a SUCCEEDED ledger entry beyond the last schedule slot.
// It is reported for manual review, never treated as a failure.
type Overpayment struct {
	TransactionID id.TransactionID
	Amount        decimal.Decimal
	OccurredAt    time.Time
}

// Result is the full derived view of a policy's payment progress.
// NextPendingIndex is 0 when every installment is funded.
type Result struct {
	Installments     []Installment
	NextPendingIndex int
	Overpayments     []Overpayment
}

// FullyFunded reports whether every schedule slot is PAID.
func (r Result) FullyFunded() bool {
	return r.NextPendingIndex == 0
}

// Reconcile maps the i-th SUCCEEDED transaction (in the ledger's chronological
// order) onto schedule ordinal i. FAILED and PENDING entries never occupy a
// slot. The function is pure: same schedule and ledger always yield the same
// result, and appending SUCCEEDED entries only moves NextPendingIndex forward.
func Reconcile(sched schedule.Schedule, transactions []*models.Transaction) Result {
	succeeded := make([]*models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx != nil && tx.Status == models.StatusSucceeded {
			succeeded = append(succeeded, tx)
		}
	}

	result := Result{
		Installments: make([]Installment, 0, sched.TotalInstallments),
	}

	for i := 1; i <= sched.TotalInstallments; i++ {
		inst := Installment{
			Index:     i,
			DueAmount: sched.DueAmount,
			Status:    InstallmentPending,
		}
		if i == sched.TotalInstallments {
			inst.DueAmount = sched.FinalDueAmount
		}
		if i <= len(succeeded) {
			tx := succeeded[i-1]
			inst.Status = InstallmentPaid
			inst.TransactionID = tx.ID
			inst.PaidAmount = tx.Amount
			inst.PaidAt = tx.OccurredAt
		} else if result.NextPendingIndex == 0 {
			result.NextPendingIndex = i
		}
		result.Installments = append(result.Installments, inst)
	}

	for _, tx := range succeeded[min(len(succeeded), sched.TotalInstallments):] {
		result.Overpayments = append(result.Overpayments, Overpayment{
			TransactionID: tx.ID,
			Amount:        tx.Amount,
			OccurredAt:    tx.OccurredAt,
		})
	}

	return result
}
