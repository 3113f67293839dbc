package payment

import (
	"sync"

	id "securelife/pkg/domain"
)

// policyLocks serializes charge submissions per policy within this process.
// Acquisition never blocks: a concurrent attempt while the lock is held must
// fail fast rather than queue, since a queued charge would submit against
// state the first charge is about to change.
type policyLocks struct {
	mu   sync.Mutex
	held map[id.PolicyID]struct{}
}

func newPolicyLocks() *policyLocks {
	return &policyLocks{held: make(map[id.PolicyID]struct{})}
}

// TryLock acquires the lock for the policy, reporting false when it is
// already held.
func (l *policyLocks) TryLock(policyID id.PolicyID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[policyID]; taken {
		return false
	}
	l.held[policyID] = struct{}{}
	return true
}

// Unlock releases the lock for the policy.
func (l *policyLocks) Unlock(policyID id.PolicyID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, policyID)
}
