// Package ledger is the append-only, chronologically ordered record of
// payment transactions per policy.
package ledger

import (
	"context"

	"securelife/internal/ledger/models"
	id "securelife/pkg/domain"
)

// Store is the ledger contract. Entries are appended, confirmed once, and
// otherwise immutable. ListByPolicy returns entries in chronological order
// (occurred_at, then insertion order); the reconciler depends on it.
type Store interface {
	// Append records a new transaction.
	Append(ctx context.Context, tx *models.Transaction) error

	// Confirm moves a PENDING transaction with the given gateway reference
	// to a final status. Errors with CodeNotFound when no such pending
	// transaction exists and CodeConflict when it already reached a final
	// status.
	Confirm(ctx context.Context, gatewayRef string, status models.TransactionStatus) (*models.Transaction, error)

	// ListByPolicy returns the policy's transactions in chronological order.
	ListByPolicy(ctx context.Context, policyID id.PolicyID) ([]*models.Transaction, error)

	// FindByID returns a single transaction.
	FindByID(ctx context.Context, txID id.TransactionID) (*models.Transaction, error)

	// HasPending reports whether the policy has a transaction awaiting
	// webhook confirmation. The payment processor refuses a new charge
	// while one is outstanding.
	HasPending(ctx context.Context, policyID id.PolicyID) (bool, error)
}
