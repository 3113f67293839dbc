// Package postgres persists audit events to an audit_events table. Used when
// the service runs without a Kafka pipeline but still needs a durable trail.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "securelife/pkg/domain"
	audit "securelife/pkg/platform/audit"
	txcontext "securelife/pkg/platform/tx"
)

// Schema creates the audit_events table. Events are append-only; there is no
// update or delete path.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id             UUID PRIMARY KEY,
	category       TEXT NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL,
	user_id        UUID,
	action         TEXT NOT NULL,
	policy_id      TEXT NOT NULL DEFAULT '',
	transaction_id TEXT NOT NULL DEFAULT '',
	quote_id       TEXT NOT NULL DEFAULT '',
	amount         TEXT NOT NULL DEFAULT '',
	reason         TEXT NOT NULL DEFAULT '',
	request_id     TEXT NOT NULL DEFAULT '',
	ip             TEXT NOT NULL DEFAULT '',
	device         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_user_idx ON audit_events (user_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS audit_events_time_idx ON audit_events (occurred_at DESC);
`

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the audit_events table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// execer joins a caller-managed transaction when one is present in context.
func (s *Store) execer(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

// Append writes one audit event. Category is derived from the action so the
// stored row matches the routing the rest of the pipeline would apply.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	var userID *uuid.UUID
	if uuid.UUID(event.UserID) != uuid.Nil {
		u := uuid.UUID(event.UserID)
		userID = &u
	}

	query := `
		INSERT INTO audit_events (
			id, category, occurred_at, user_id, action,
			policy_id, transaction_id, quote_id, amount,
			reason, request_id, ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.execer(ctx).Exec(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		userID,
		event.Action,
		event.PolicyID,
		event.TransactionID,
		event.QuoteID,
		event.Amount,
		event.Reason,
		event.RequestID,
		event.IP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns events recorded for one user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	query := selectColumns + `
		WHERE user_id = $1
		ORDER BY occurred_at DESC
	`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events across all users.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := selectColumns + `
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

const selectColumns = `
		SELECT category, occurred_at, user_id, action,
			   policy_id, transaction_id, quote_id, amount,
			   reason, request_id, ip, device
		FROM audit_events
`

func scanEvents(rows pgx.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			userID   *uuid.UUID
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&userID,
			&event.Action,
			&event.PolicyID,
			&event.TransactionID,
			&event.QuoteID,
			&event.Amount,
			&event.Reason,
			&event.RequestID,
			&event.IP,
			&event.Device,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if userID != nil {
			event.UserID = id.UserID(*userID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

var (
	_ audit.Store  = (*Store)(nil)
	_ audit.Reader = (*Store)(nil)
)
