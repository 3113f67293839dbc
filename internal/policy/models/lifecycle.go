package models

import dErrors "securelife/pkg/domain-errors"

// PolicyStatus is the lifecycle state of a policy account.
//
// PENDING_APPROVAL -> ACTIVE -> { WITHDRAWAL_REQUESTED -> APPROVED_WITHDRAWAL
//                               | CLAIM_REQUESTED -> APPROVED_CLAIM
//                               | COMPLETED_TERM }
//
// APPROVED_WITHDRAWAL, APPROVED_CLAIM and COMPLETED_TERM are terminal for
// payment purposes.
type PolicyStatus string

const (
	StatusPendingApproval     PolicyStatus = "PENDING_APPROVAL"
	StatusActive              PolicyStatus = "ACTIVE"
	StatusWithdrawalRequested PolicyStatus = "WITHDRAWAL_REQUESTED"
	StatusApprovedWithdrawal  PolicyStatus = "APPROVED_WITHDRAWAL"
	StatusClaimRequested      PolicyStatus = "CLAIM_REQUESTED"
	StatusApprovedClaim       PolicyStatus = "APPROVED_CLAIM"
	StatusCompletedTerm       PolicyStatus = "COMPLETED_TERM"
)

var validStatuses = map[PolicyStatus]bool{
	StatusPendingApproval:     true,
	StatusActive:              true,
	StatusWithdrawalRequested: true,
	StatusApprovedWithdrawal:  true,
	StatusClaimRequested:      true,
	StatusApprovedClaim:       true,
	StatusCompletedTerm:       true,
}

// transitions is the lifecycle state machine. Absent entries are illegal.
var transitions = map[PolicyStatus][]PolicyStatus{
	StatusPendingApproval:     {StatusActive},
	StatusActive:              {StatusWithdrawalRequested, StatusClaimRequested, StatusCompletedTerm},
	StatusWithdrawalRequested: {StatusApprovedWithdrawal},
	StatusClaimRequested:      {StatusApprovedClaim},
}

// ParsePolicyStatus constructs a PolicyStatus from external input.
func ParsePolicyStatus(s string) (PolicyStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "policy status cannot be empty")
	}
	st := PolicyStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid policy status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s PolicyStatus) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation.
func (s PolicyStatus) String() string {
	return string(s)
}

// CanPay reports whether the policy accepts installment payments. Returns
// false for disallowed combinations, never an error; callers surface the
// violation at the boundary.
func (s PolicyStatus) CanPay() bool {
	return s == StatusActive
}

// CanClaim reports whether a claim may be filed.
func (s PolicyStatus) CanClaim() bool {
	return s == StatusActive
}

// CanWithdraw reports whether a withdrawal may be requested.
func (s PolicyStatus) CanWithdraw() bool {
	return s == StatusActive
}

// IsTerminalForPayments reports whether the status accepts no further
// payments under any circumstances.
func (s PolicyStatus) IsTerminalForPayments() bool {
	switch s {
	case StatusApprovedWithdrawal, StatusApprovedClaim, StatusCompletedTerm:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle permits moving from s to next.
// Self-transitions are allowed so the collaborator's status PUT stays
// idempotent.
func (s PolicyStatus) CanTransition(next PolicyStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
