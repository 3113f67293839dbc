package audit

import (
	"context"
	"time"

	id "securelife/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// Money moved, or a policy changed lifecycle state. These require
	// tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to payment forensics and
	// alerting: rejected charges, webhook signature failures, anomalies.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key payment actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Action    string
	// PolicyID and TransactionID locate the event in the payment ledger.
	// Stored as strings so partially-known events (e.g. a rejected webhook
	// with an unknown reference) can still be recorded.
	PolicyID      string
	TransactionID string
	QuoteID       string
	// Amount is the decimal string of the money involved, empty when the
	// event carries no amount (e.g. lifecycle transitions).
	Amount string
	Reason string
	// RequestID, IP and Device come from the request context for forensics.
	RequestID string
	IP        string
	Device    string
}

type AuditEvent string

const (
	// Quote events
	EventQuoteIssued AuditEvent = "quote_issued"

	// Charge events
	EventChargeSubmitted AuditEvent = "charge_submitted"
	EventChargeConfirmed AuditEvent = "charge_confirmed"
	EventChargeFailed    AuditEvent = "charge_failed"
	EventChargeRejected  AuditEvent = "charge_rejected"

	// Reconciliation events
	EventOverpaymentFlagged AuditEvent = "overpayment_flagged"

	// Lifecycle events
	EventPolicyCompleted     AuditEvent = "policy_completed"
	EventWithdrawalRequested AuditEvent = "withdrawal_requested"
	EventClaimRequested      AuditEvent = "claim_requested"

	// Webhook events
	EventWebhookRejected AuditEvent = "webhook_rejected"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - money moved or lifecycle changed
	EventChargeConfirmed:     CategoryCompliance,
	EventPolicyCompleted:     CategoryCompliance,
	EventWithdrawalRequested: CategoryCompliance,
	EventClaimRequested:      CategoryCompliance,

	// Security events - feed into alerting
	EventChargeRejected:     CategorySecurity,
	EventOverpaymentFlagged: CategorySecurity,
	EventWebhookRejected:    CategorySecurity,

	// Operations events - routine activity, can be sampled
	EventQuoteIssued:     CategoryOperations,
	EventChargeSubmitted: CategoryOperations,
	EventChargeFailed:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Implementations include the in-memory store
// (tests, single-node) and the Kafka sink (durable pipeline).
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader exposes recorded events for review tooling.
type Reader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
