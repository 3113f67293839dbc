package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
)

// TransactionStatus is the state of a recorded payment attempt.
//
// PENDING means the gateway accepted the submission but has not yet confirmed
// the outcome; only the gateway's asynchronous webhook moves a transaction to
// SUCCEEDED or FAILED. SUCCEEDED and FAILED are final.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusSucceeded TransactionStatus = "SUCCEEDED"
	StatusFailed    TransactionStatus = "FAILED"
)

// IsValid checks if the status is one of the supported enum values.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}

// IsFinal reports whether the status accepts no further transitions.
func (s TransactionStatus) IsFinal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// String returns the string representation.
func (s TransactionStatus) String() string {
	return string(s)
}

// ParseTransactionStatus constructs a TransactionStatus from external input.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "transaction status cannot be empty")
	}
	st := TransactionStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid transaction status")
	}
	return st, nil
}

// Transaction is one append-only ledger entry. Entries are never mutated
// after reaching a final status; the external payment pipeline and this
// service only ever append or confirm.
type Transaction struct {
	ID         id.TransactionID  `json:"transaction_id"`
	PolicyID   id.PolicyID       `json:"policy_id"`
	Amount     decimal.Decimal   `json:"amount"`
	OccurredAt time.Time         `json:"occurred_at"`
	Status     TransactionStatus `json:"status"`

	// GatewayRef is the payment gateway's reference for this charge; webhook
	// confirmations correlate on it.
	GatewayRef string `json:"gateway_ref,omitempty"`
}

// NewTransaction creates a Transaction with domain invariant validation.
func NewTransaction(policyID id.PolicyID, amount decimal.Decimal, status TransactionStatus, gatewayRef string, occurredAt time.Time) (*Transaction, error) {
	if policyID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy id cannot be nil")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transaction amount must be positive")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid transaction status")
	}
	if occurredAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "occurred_at cannot be zero")
	}
	return &Transaction{
		ID:         id.TransactionID(uuid.New()),
		PolicyID:   policyID,
		Amount:     amount,
		OccurredAt: occurredAt,
		Status:     status,
		GatewayRef: gatewayRef,
	}, nil
}
