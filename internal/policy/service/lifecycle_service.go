// Package service gates lifecycle transitions requested by policy holders.
package service

import (
	"context"
	"log/slog"

	"securelife/internal/policy"
	"securelife/internal/policy/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	audit "securelife/pkg/platform/audit"
	"securelife/pkg/platform/audit/publisher"
	"securelife/pkg/requestcontext"
)

// Service validates withdrawal and claim requests against the lifecycle
// state machine before forwarding them to the policy collaborator.
type Service struct {
	policies policy.Reader
	statuses policy.StatusWriter
	logger   *slog.Logger
	auditor  *publisher.Publisher
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithAuditor wires the audit publisher.
func WithAuditor(p *publisher.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// NewService constructs a lifecycle service.
func NewService(policies policy.Reader, statuses policy.StatusWriter, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		policies: policies,
		statuses: statuses,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestWithdrawal moves an ACTIVE policy to WITHDRAWAL_REQUESTED.
func (s *Service) RequestWithdrawal(ctx context.Context, policyID id.PolicyID) (models.PolicyStatus, error) {
	return s.transition(ctx, policyID, models.StatusWithdrawalRequested,
		models.PolicyStatus.CanWithdraw, audit.EventWithdrawalRequested, "withdrawal")
}

// RequestClaim moves an ACTIVE policy to CLAIM_REQUESTED.
func (s *Service) RequestClaim(ctx context.Context, policyID id.PolicyID) (models.PolicyStatus, error) {
	return s.transition(ctx, policyID, models.StatusClaimRequested,
		models.PolicyStatus.CanClaim, audit.EventClaimRequested, "claim")
}

func (s *Service) transition(
	ctx context.Context,
	policyID id.PolicyID,
	target models.PolicyStatus,
	allowed func(models.PolicyStatus) bool,
	event audit.AuditEvent,
	kind string,
) (models.PolicyStatus, error) {
	p, err := s.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return "", err
	}

	// Re-requesting the transition the policy is already in is idempotent.
	if p.Status == target {
		return target, nil
	}
	if !allowed(p.Status) {
		return "", dErrors.Newf(dErrors.CodeUnauthorizedState, "policy in status %s cannot request a %s", p.Status, kind)
	}

	if err := s.statuses.PutStatus(ctx, policyID, target); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "lifecycle transition requested",
		slog.String("policy_id", policyID.String()),
		slog.String("from", p.Status.String()),
		slog.String("to", target.String()),
		slog.String("request_id", requestcontext.RequestID(ctx)))

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			UserID:    requestcontext.UserID(ctx),
			Action:    string(event),
			PolicyID:  policyID.String(),
			RequestID: requestcontext.RequestID(ctx),
			IP:        requestcontext.ClientIP(ctx),
			Device:    requestcontext.Device(ctx),
		})
	}

	return target, nil
}
