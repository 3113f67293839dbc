// Package memory provides an in-process quote store for tests and
// single-node deployments.
package memory

import (
	"context"
	"sync"

	"securelife/internal/quote"
	"securelife/internal/quote/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	"securelife/pkg/requestcontext"
)

// Store keeps quotes in a map. Expired entries are rejected on read and
// lazily removed; there is no background sweeper.
type Store struct {
	mu     sync.RWMutex
	quotes map[id.QuoteID]models.Quote
}

var _ quote.Store = (*Store)(nil)

// NewStore creates an empty in-memory quote store.
func NewStore() *Store {
	return &Store{quotes: make(map[id.QuoteID]models.Quote)}
}

// Save persists a copy of the quote.
func (s *Store) Save(_ context.Context, q *models.Quote) error {
	if q == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "quote is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.ID] = *q
	return nil
}

// Get returns the quote if it exists and has not expired.
func (s *Store) Get(ctx context.Context, quoteID id.QuoteID) (*models.Quote, error) {
	s.mu.RLock()
	q, ok := s.quotes[quoteID]
	s.mu.RUnlock()

	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "quote not found")
	}
	if q.Expired(requestcontext.Now(ctx)) {
		s.mu.Lock()
		delete(s.quotes, quoteID)
		s.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeNotFound, "quote not found")
	}

	out := q
	return &out, nil
}

// Delete removes a quote. Deleting an unknown quote is a no-op.
func (s *Store) Delete(_ context.Context, quoteID id.QuoteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quotes, quoteID)
	return nil
}
