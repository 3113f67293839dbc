package memory

import (
	"context"
	"sort"
	"sync"

	"securelife/internal/ledger/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
)

// Store implements ledger.Store with in-process state. Used in tests and
// single-node development; production uses the Postgres store.
type Store struct {
	mu      sync.RWMutex
	byID    map[id.TransactionID]*models.Transaction
	byRef   map[string]id.TransactionID
	ordered map[id.PolicyID][]id.TransactionID
	seq     map[id.TransactionID]int
	nextSeq int
}

// New creates an empty in-memory ledger store.
func New() *Store {
	return &Store{
		byID:    make(map[id.TransactionID]*models.Transaction),
		byRef:   make(map[string]id.TransactionID),
		ordered: make(map[id.PolicyID][]id.TransactionID),
		seq:     make(map[id.TransactionID]int),
	}
}

// Append records a new transaction.
func (s *Store) Append(ctx context.Context, tx *models.Transaction) error {
	if tx == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "transaction is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[tx.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "transaction %s already recorded", tx.ID)
	}
	if tx.GatewayRef != "" {
		if _, exists := s.byRef[tx.GatewayRef]; exists {
			return dErrors.Newf(dErrors.CodeConflict, "gateway reference %s already recorded", tx.GatewayRef)
		}
	}

	cp := *tx
	s.byID[tx.ID] = &cp
	if tx.GatewayRef != "" {
		s.byRef[tx.GatewayRef] = tx.ID
	}
	s.ordered[tx.PolicyID] = append(s.ordered[tx.PolicyID], tx.ID)
	s.seq[tx.ID] = s.nextSeq
	s.nextSeq++
	return nil
}

// Confirm finalizes a pending transaction by gateway reference.
func (s *Store) Confirm(ctx context.Context, gatewayRef string, status models.TransactionStatus) (*models.Transaction, error) {
	if !status.IsFinal() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "confirmation status must be final")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	txID, ok := s.byRef[gatewayRef]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no transaction with gateway reference %s", gatewayRef)
	}
	tx := s.byID[txID]
	if tx.Status.IsFinal() {
		return nil, dErrors.Newf(dErrors.CodeConflict, "transaction %s already %s", tx.ID, tx.Status)
	}

	tx.Status = status
	cp := *tx
	return &cp, nil
}

// ListByPolicy returns transactions in chronological order.
func (s *Store) ListByPolicy(ctx context.Context, policyID id.PolicyID) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.ordered[policyID]
	out := make([]*models.Transaction, 0, len(ids))
	for _, txID := range ids {
		cp := *s.byID[txID]
		out = append(out, &cp)
	}
	// occurred_at first, insertion order as tiebreak
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return s.seq[out[i].ID] < s.seq[out[j].ID]
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

// FindByID returns a single transaction.
func (s *Store) FindByID(ctx context.Context, txID id.TransactionID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byID[txID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "transaction %s not found", txID)
	}
	cp := *tx
	return &cp, nil
}

// HasPending reports whether any transaction awaits confirmation.
func (s *Store) HasPending(ctx context.Context, policyID id.PolicyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, txID := range s.ordered[policyID] {
		if s.byID[txID].Status == models.StatusPending {
			return true, nil
		}
	}
	return false, nil
}
