// Package payment submits installment charges to the gateway and applies the
// webhook confirmations that decide their outcome.
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"securelife/internal/ledger"
	ledgermodels "securelife/internal/ledger/models"
	"securelife/internal/payment/gateway"
	"securelife/internal/platform/metrics"
	"securelife/internal/policy"
	policymodels "securelife/internal/policy/models"
	"securelife/internal/quote"
	"securelife/internal/reconcile"
	"securelife/internal/schedule"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	audit "securelife/pkg/platform/audit"
	"securelife/pkg/platform/audit/publisher"
	"securelife/pkg/requestcontext"
)

var tracer = otel.Tracer("securelife/internal/payment")

// gatewayTimeout bounds a charge submission once it is detached from the
// caller's cancellation.
const gatewayTimeout = 30 * time.Second

// Service coordinates the charge pipeline. A charge is accepted only while
// the per-policy lock is held and the ledger shows no in-flight submission;
// after submission the gateway webhook is the sole source of truth for the
// outcome. The service never re-submits a charge on its own.
type Service struct {
	policies policy.Reader
	statuses policy.StatusWriter
	ledger   ledger.Store
	quotes   quote.Store
	gateway  gateway.Charger
	locks    *policyLocks
	logger   *slog.Logger

	metrics *metrics.Metrics
	auditor *publisher.Publisher
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditor wires the audit publisher.
func WithAuditor(p *publisher.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// NewService constructs a payment service.
func NewService(
	policies policy.Reader,
	statuses policy.StatusWriter,
	ledgerStore ledger.Store,
	quotes quote.Store,
	charger gateway.Charger,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		policies: policies,
		statuses: statuses,
		ledger:   ledgerStore,
		quotes:   quotes,
		gateway:  charger,
		locks:    newPolicyLocks(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Charge validates and submits a charge for installment index of the policy.
// The returned transaction is PENDING: the webhook decides whether it
// succeeds. Rejections map to the error taxonomy; none of them reach the
// gateway.
func (s *Service) Charge(ctx context.Context, policyID id.PolicyID, index int, quoteID id.QuoteID, paymentMethodToken string) (*ledgermodels.Transaction, error) {
	ctx, span := tracer.Start(ctx, "payment.Charge", trace.WithAttributes(
		attribute.String("policy.id", policyID.String()),
		attribute.Int("installment.index", index),
	))
	defer span.End()

	if paymentMethodToken == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payment method token is required")
	}

	if !s.locks.TryLock(policyID) {
		return nil, s.reject(ctx, span, policyID, index,
			dErrors.New(dErrors.CodePaymentInProgress, "another payment for this policy is in progress"))
	}
	defer s.locks.Unlock(policyID)

	// A PENDING ledger entry means a previous submission is still awaiting
	// its webhook; that window can outlive the in-process lock.
	pending, err := s.ledger.HasPending(ctx, policyID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if pending {
		return nil, s.reject(ctx, span, policyID, index,
			dErrors.New(dErrors.CodePaymentInProgress, "a submitted payment is awaiting confirmation"))
	}

	q, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, s.reject(ctx, span, policyID, index,
				dErrors.New(dErrors.CodeStaleQuote, "quote expired or unknown"))
		}
		span.RecordError(err)
		return nil, err
	}
	if !q.Matches(policyID, index) {
		return nil, s.reject(ctx, span, policyID, index,
			dErrors.New(dErrors.CodeStaleQuote, "quote was issued for a different installment"))
	}

	p, err := s.policies.GetPolicy(ctx, policyID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !p.Status.CanPay() {
		return nil, s.reject(ctx, span, policyID, index,
			dErrors.Newf(dErrors.CodeUnauthorizedState, "policy in status %s does not accept payments", p.Status))
	}

	sched, err := schedule.ComputeForPolicy(p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if _, err := sched.AmountDue(index); err != nil {
		return nil, err
	}

	transactions, err := s.ledger.ListByPolicy(ctx, policyID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	result := reconcile.Reconcile(*sched, transactions)
	s.flagOverpayments(ctx, policyID, result.Overpayments)
	if index != result.NextPendingIndex {
		return nil, s.reject(ctx, span, policyID, index,
			dErrors.Newf(dErrors.CodeStaleInstallment, "installment %d is not the next pending one", index))
	}

	// The charge must complete even if the caller disconnects mid-flight;
	// otherwise the gateway could hold money the ledger never saw.
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), gatewayTimeout)
	defer cancel()

	start := time.Now()
	ack, err := s.gateway.Charge(submitCtx, q.TotalAmount, paymentMethodToken)
	if s.metrics != nil {
		s.metrics.ObserveGatewayLatency(time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway submission failed")
		s.recordGatewayFailure(ctx, policyID, q.TotalAmount, err)
		if dErrors.Is(err, dErrors.CodePaymentGateway) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodePaymentGateway, "charge submission failed")
	}

	tx, err := ledgermodels.NewTransaction(policyID, q.TotalAmount, ledgermodels.StatusPending, ack.Reference, requestcontext.Now(ctx))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.ledger.Append(ctx, tx); err != nil {
		// The gateway accepted the charge but the ledger did not record it.
		// Surface loudly: the webhook for ack.Reference will not match.
		s.logger.ErrorContext(ctx, "submitted charge could not be recorded",
			slog.String("policy_id", policyID.String()),
			slog.String("gateway_ref", ack.Reference),
			slog.String("error", err.Error()))
		span.RecordError(err)
		return nil, err
	}

	// A quote funds at most one submission.
	if err := s.quotes.Delete(ctx, quoteID); err != nil {
		s.logger.WarnContext(ctx, "could not delete consumed quote",
			slog.String("quote_id", quoteID.String()),
			slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "charge submitted",
		slog.String("policy_id", policyID.String()),
		slog.String("transaction_id", tx.ID.String()),
		slog.String("gateway_ref", ack.Reference),
		slog.Int("installment_index", index),
		slog.String("amount", q.TotalAmount.String()),
		slog.String("request_id", requestcontext.RequestID(ctx)))

	if s.metrics != nil {
		s.metrics.ChargesSubmitted.Inc()
	}
	s.audit(ctx, audit.Event{
		UserID:        requestcontext.UserID(ctx),
		Action:        string(audit.EventChargeSubmitted),
		PolicyID:      policyID.String(),
		TransactionID: tx.ID.String(),
		QuoteID:       quoteID.String(),
		Amount:        q.TotalAmount.String(),
	})

	return tx, nil
}

// Confirm applies a gateway webhook to the matching PENDING transaction. On
// success it reconciles the policy and, when fully funded, hands it over to
// COMPLETED_TERM.
func (s *Service) Confirm(ctx context.Context, gatewayRef string, outcome ledgermodels.TransactionStatus) (*ledgermodels.Transaction, error) {
	ctx, span := tracer.Start(ctx, "payment.Confirm", trace.WithAttributes(
		attribute.String("gateway.ref", gatewayRef),
		attribute.String("outcome", outcome.String()),
	))
	defer span.End()

	if gatewayRef == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "gateway reference is required")
	}
	if !outcome.IsFinal() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "confirmation outcome must be final")
	}

	tx, err := s.ledger.Confirm(ctx, gatewayRef, outcome)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "charge confirmed",
		slog.String("policy_id", tx.PolicyID.String()),
		slog.String("transaction_id", tx.ID.String()),
		slog.String("outcome", outcome.String()),
		slog.String("request_id", requestcontext.RequestID(ctx)))

	if s.metrics != nil {
		if outcome == ledgermodels.StatusSucceeded {
			s.metrics.IncChargeConfirmed("succeeded")
		} else {
			s.metrics.IncChargeConfirmed("failed")
		}
	}

	action := audit.EventChargeConfirmed
	if outcome == ledgermodels.StatusFailed {
		action = audit.EventChargeFailed
	}
	s.audit(ctx, audit.Event{
		Action:        string(action),
		PolicyID:      tx.PolicyID.String(),
		TransactionID: tx.ID.String(),
		Amount:        tx.Amount.String(),
	})

	if outcome == ledgermodels.StatusSucceeded {
		if err := s.completeIfFunded(ctx, tx.PolicyID); err != nil {
			// The confirmation itself stands; completion is retried on
			// the next successful webhook or by operators.
			s.logger.ErrorContext(ctx, "post-confirmation completion check failed",
				slog.String("policy_id", tx.PolicyID.String()),
				slog.String("error", err.Error()))
			span.RecordError(err)
		}
	}

	return tx, nil
}

// completeIfFunded reconciles the policy and requests COMPLETED_TERM when
// every installment is funded. The status PUT is idempotent on the
// collaborator, so repeated webhooks are harmless.
func (s *Service) completeIfFunded(ctx context.Context, policyID id.PolicyID) error {
	p, err := s.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return err
	}
	sched, err := schedule.ComputeForPolicy(p)
	if err != nil {
		return err
	}
	transactions, err := s.ledger.ListByPolicy(ctx, policyID)
	if err != nil {
		return err
	}

	result := reconcile.Reconcile(*sched, transactions)
	s.flagOverpayments(ctx, policyID, result.Overpayments)
	if !result.FullyFunded() {
		return nil
	}
	if !p.Status.CanTransition(policymodels.StatusCompletedTerm) {
		return nil
	}

	if err := s.statuses.PutStatus(ctx, policyID, policymodels.StatusCompletedTerm); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "policy fully funded",
		slog.String("policy_id", policyID.String()))
	if s.metrics != nil {
		s.metrics.PoliciesCompleted.Inc()
	}
	s.audit(ctx, audit.Event{
		Action:   string(audit.EventPolicyCompleted),
		PolicyID: policyID.String(),
	})
	return nil
}

// reject records a pre-gateway rejection and returns the given error.
func (s *Service) reject(ctx context.Context, span trace.Span, policyID id.PolicyID, index int, err error) error {
	code := dErrors.CodeOf(err)
	span.SetStatus(codes.Error, string(code))

	s.logger.WarnContext(ctx, "charge rejected",
		slog.String("policy_id", policyID.String()),
		slog.Int("installment_index", index),
		slog.String("reason", string(code)),
		slog.String("request_id", requestcontext.RequestID(ctx)))

	if s.metrics != nil {
		s.metrics.IncChargeRejected(string(code))
	}
	s.audit(ctx, audit.Event{
		UserID:   requestcontext.UserID(ctx),
		Action:   string(audit.EventChargeRejected),
		PolicyID: policyID.String(),
		Reason:   string(code),
	})
	return err
}

// recordGatewayFailure appends a FAILED entry so rejected submissions stay
// visible in the ledger. The slot remains PENDING and is never auto-retried.
func (s *Service) recordGatewayFailure(ctx context.Context, policyID id.PolicyID, amount decimal.Decimal, gwErr error) {
	tx, err := ledgermodels.NewTransaction(policyID, amount, ledgermodels.StatusFailed, "", requestcontext.Now(ctx))
	if err == nil {
		err = s.ledger.Append(ctx, tx)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "could not record gateway failure",
			slog.String("policy_id", policyID.String()),
			slog.String("error", err.Error()))
	}

	s.audit(ctx, audit.Event{
		UserID:   requestcontext.UserID(ctx),
		Action:   string(audit.EventChargeFailed),
		PolicyID: policyID.String(),
		Amount:   amount.String(),
		Reason:   gwErr.Error(),
	})
}

// flagOverpayments surfaces excess SUCCEEDED transactions for manual review.
func (s *Service) flagOverpayments(ctx context.Context, policyID id.PolicyID, overpayments []reconcile.Overpayment) {
	for _, op := range overpayments {
		s.logger.WarnContext(ctx, "overpayment anomaly",
			slog.String("policy_id", policyID.String()),
			slog.String("transaction_id", op.TransactionID.String()),
			slog.String("amount", op.Amount.String()))
		if s.metrics != nil {
			s.metrics.OverpaymentAnomalies.Inc()
		}
		s.audit(ctx, audit.Event{
			Action:        string(audit.EventOverpaymentFlagged),
			PolicyID:      policyID.String(),
			TransactionID: op.TransactionID.String(),
			Amount:        op.Amount.String(),
		})
	}
}

func (s *Service) audit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.IP = requestcontext.ClientIP(ctx)
	event.Device = requestcontext.Device(ctx)
	_ = s.auditor.Emit(ctx, event)
}
