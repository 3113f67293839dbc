// Package domain holds identifier types shared across the service.
//
// IDs are distinct uuid-backed types so a PolicyID can never be passed where
// a TransactionID is expected. Construct via the Parse helpers at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "securelife/pkg/domain-errors"
)

// PolicyID identifies a policy account owned by the policy collaborator.
type PolicyID uuid.UUID

// TransactionID identifies a ledger transaction.
type TransactionID uuid.UUID

// QuoteID identifies an issued payment quote.
type QuoteID uuid.UUID

// UserID identifies the authenticated customer making a request.
type UserID uuid.UUID

func (id PolicyID) String() string      { return uuid.UUID(id).String() }
func (id TransactionID) String() string { return uuid.UUID(id).String() }
func (id QuoteID) String() string       { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }

func (id PolicyID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TransactionID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id QuoteID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }

// ParsePolicyID constructs a PolicyID from external input.
func ParsePolicyID(s string) (PolicyID, error) {
	u, err := parseUUID(s, "policy id")
	return PolicyID(u), err
}

// ParseTransactionID constructs a TransactionID from external input.
func ParseTransactionID(s string) (TransactionID, error) {
	u, err := parseUUID(s, "transaction id")
	return TransactionID(u), err
}

// ParseQuoteID constructs a QuoteID from external input.
func ParseQuoteID(s string) (QuoteID, error) {
	u, err := parseUUID(s, "quote id")
	return QuoteID(u), err
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// parseUUID enforces the shared invariant: valid, non-empty, non-nil.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be nil", what)
	}
	return u, nil
}
