package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"securelife/internal/ledger/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
)

// Schema creates the ledger table. Applied by deployment tooling; the
// integration suite uses it to provision test databases.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	transaction_id UUID PRIMARY KEY,
	policy_id      UUID NOT NULL,
	amount         NUMERIC(18,2) NOT NULL CHECK (amount > 0),
	occurred_at    TIMESTAMPTZ NOT NULL,
	status         TEXT NOT NULL CHECK (status IN ('PENDING','SUCCEEDED','FAILED')),
	gateway_ref    TEXT UNIQUE,
	seq            BIGSERIAL
);
CREATE INDEX IF NOT EXISTS idx_transactions_policy ON transactions (policy_id, occurred_at, seq);
`

// Store persists the transaction ledger in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a PostgreSQL-backed ledger store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema applies the ledger schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

// Append records a new transaction.
func (s *Store) Append(ctx context.Context, tx *models.Transaction) error {
	if tx == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "transaction is required")
	}
	query := `
		INSERT INTO transactions (transaction_id, policy_id, amount, occurred_at, status, gateway_ref)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.UUID(tx.ID),
		uuid.UUID(tx.PolicyID),
		tx.Amount.String(),
		tx.OccurredAt,
		string(tx.Status),
		tx.GatewayRef,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return dErrors.Newf(dErrors.CodeConflict, "transaction %s already recorded", tx.ID)
		}
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// Confirm finalizes a pending transaction by gateway reference. The WHERE
// clause on status makes the transition race-safe: a concurrent confirmation
// loses and reports conflict.
func (s *Store) Confirm(ctx context.Context, gatewayRef string, status models.TransactionStatus) (*models.Transaction, error) {
	if !status.IsFinal() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "confirmation status must be final")
	}
	query := `
		UPDATE transactions
		SET status = $1
		WHERE gateway_ref = $2 AND status = 'PENDING'
		RETURNING transaction_id, policy_id, amount::text, occurred_at, status, COALESCE(gateway_ref, '')
	`
	tx, err := scanTransaction(s.pool.QueryRow(ctx, query, string(status), gatewayRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish "never existed" from "already final" for the caller.
			var existing string
			lookupErr := s.pool.QueryRow(ctx,
				`SELECT status FROM transactions WHERE gateway_ref = $1`, gatewayRef,
			).Scan(&existing)
			if lookupErr == nil {
				return nil, dErrors.Newf(dErrors.CodeConflict, "transaction with gateway reference %s already %s", gatewayRef, existing)
			}
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no transaction with gateway reference %s", gatewayRef)
		}
		return nil, fmt.Errorf("confirm transaction: %w", err)
	}
	return tx, nil
}

// ListByPolicy returns transactions in chronological order.
func (s *Store) ListByPolicy(ctx context.Context, policyID id.PolicyID) ([]*models.Transaction, error) {
	query := `
		SELECT transaction_id, policy_id, amount::text, occurred_at, status, COALESCE(gateway_ref, '')
		FROM transactions
		WHERE policy_id = $1
		ORDER BY occurred_at, seq
	`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(policyID))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// FindByID returns a single transaction.
func (s *Store) FindByID(ctx context.Context, txID id.TransactionID) (*models.Transaction, error) {
	query := `
		SELECT transaction_id, policy_id, amount::text, occurred_at, status, COALESCE(gateway_ref, '')
		FROM transactions
		WHERE transaction_id = $1
	`
	tx, err := scanTransaction(s.pool.QueryRow(ctx, query, uuid.UUID(txID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "transaction %s not found", txID)
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return tx, nil
}

// HasPending reports whether any transaction awaits confirmation.
func (s *Store) HasPending(ctx context.Context, policyID id.PolicyID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE policy_id = $1 AND status = 'PENDING')`,
		uuid.UUID(policyID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending transactions: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx         models.Transaction
		txID       uuid.UUID
		policyID   uuid.UUID
		amount     string
		status     string
		gatewayRef string
	)
	if err := row.Scan(&txID, &policyID, &amount, &tx.OccurredAt, &status, &gatewayRef); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	tx.ID = id.TransactionID(txID)
	tx.PolicyID = id.PolicyID(policyID)
	tx.Amount = parsed
	tx.Status = models.TransactionStatus(status)
	tx.GatewayRef = gatewayRef
	return &tx, nil
}

func isUniqueViolation(err error) bool {
	// 23505 is unique_violation; pgconn.PgError carries the code.
	type sqlState interface{ SQLState() string }
	var pgErr sqlState
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
