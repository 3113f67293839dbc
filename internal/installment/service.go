// Package installment assembles the derived payment schedule view: the
// policy from the policy collaborator, the ledger from the transaction
// store, reconciled into per-installment state.
package installment

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"securelife/internal/ledger"
	ledgermodels "securelife/internal/ledger/models"
	"securelife/internal/policy"
	policymodels "securelife/internal/policy/models"
	"securelife/internal/reconcile"
	"securelife/internal/schedule"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
)

// View is the full derived schedule for one policy.
type View struct {
	PolicyID          id.PolicyID
	PolicyStatus      policymodels.PolicyStatus
	TotalInvestment   string
	TotalInstallments int
	Installments      []reconcile.Installment
	NextPendingIndex  int
	Overpayments      []reconcile.Overpayment
}

// Receipt is the printable record of one settled transaction.
type Receipt struct {
	TransactionID    id.TransactionID
	PolicyID         id.PolicyID
	Amount           string
	Status           ledgermodels.TransactionStatus
	GatewayRef       string
	OccurredAt       time.Time
	InstallmentIndex int // 0 when the transaction funds no slot
}

// Service reads and reconciles. It never writes; the ledger and the policy
// are owned elsewhere.
type Service struct {
	policies policy.Reader
	ledger   ledger.Store
	logger   *slog.Logger
}

// NewService constructs an installment view service.
func NewService(policies policy.Reader, ledgerStore ledger.Store, logger *slog.Logger) *Service {
	return &Service{
		policies: policies,
		ledger:   ledgerStore,
		logger:   logger,
	}
}

// Schedule returns the reconciled installment view for the policy. The
// policy and the ledger are fetched concurrently.
func (s *Service) Schedule(ctx context.Context, policyID id.PolicyID) (*View, error) {
	var (
		p            *policymodels.Policy
		transactions []*ledgermodels.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = s.policies.GetPolicy(gctx, policyID)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = s.ledger.ListByPolicy(gctx, policyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sched, err := schedule.ComputeForPolicy(p)
	if err != nil {
		return nil, err
	}
	result := reconcile.Reconcile(*sched, transactions)

	return &View{
		PolicyID:          policyID,
		PolicyStatus:      p.Status,
		TotalInvestment:   p.TotalInvestmentAmount.StringFixed(2),
		TotalInstallments: sched.TotalInstallments,
		Installments:      result.Installments,
		NextPendingIndex:  result.NextPendingIndex,
		Overpayments:      result.Overpayments,
	}, nil
}

// Transactions returns the policy's ledger in chronological order. The
// policy is fetched first so an unknown policy is a 404, not an empty list.
func (s *Service) Transactions(ctx context.Context, policyID id.PolicyID) ([]*ledgermodels.Transaction, error) {
	if _, err := s.policies.GetPolicy(ctx, policyID); err != nil {
		return nil, err
	}
	return s.ledger.ListByPolicy(ctx, policyID)
}

// Receipt assembles the receipt for one transaction, including which
// installment slot it funded.
func (s *Service) Receipt(ctx context.Context, txID id.TransactionID) (*Receipt, error) {
	tx, err := s.ledger.FindByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		TransactionID: tx.ID,
		PolicyID:      tx.PolicyID,
		Amount:        tx.Amount.StringFixed(2),
		Status:        tx.Status,
		GatewayRef:    tx.GatewayRef,
		OccurredAt:    tx.OccurredAt,
	}

	if tx.Status != ledgermodels.StatusSucceeded {
		return receipt, nil
	}

	view, err := s.Schedule(ctx, tx.PolicyID)
	if err != nil {
		// The transaction is real even if the policy view is briefly
		// unavailable; return the receipt without a slot.
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return receipt, nil
		}
		return nil, err
	}
	for _, inst := range view.Installments {
		if inst.TransactionID == tx.ID {
			receipt.InstallmentIndex = inst.Index
			break
		}
	}
	return receipt, nil
}
