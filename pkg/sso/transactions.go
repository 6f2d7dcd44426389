package sso

import (
	"sync"
	"time"
)

// Transaction is a login started by LoginWithRedirect and not yet completed
type Transaction struct {
	State       string
	Verifier    string
	Nonce       string
	RedirectURI string
	CreatedAt   time.Time
}

// TransactionStore keeps pending logins across client re-construction, so
// the client created after the redirect returns can complete the login
type TransactionStore interface {
	Put(tx Transaction) error
	// Take returns and removes the transaction for state
	Take(state string) (Transaction, bool)
}

// MemoryTransactions is an in-memory TransactionStore. Transactions older
// than the TTL are discarded.
type MemoryTransactions struct {
	mu  sync.Mutex
	txs map[string]Transaction
	ttl time.Duration
	now func() time.Time
}

// NewMemoryTransactions creates a new store. A zero ttl defaults to 10 minutes.
func NewMemoryTransactions(ttl time.Duration) *MemoryTransactions {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryTransactions{
		txs: make(map[string]Transaction),
		ttl: ttl,
		now: time.Now,
	}
}

func (m *MemoryTransactions) Put(tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = m.now()
	}
	m.expire()
	m.txs[tx.State] = tx
	return nil
}

func (m *MemoryTransactions) Take(state string) (Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire()
	tx, ok := m.txs[state]
	if ok {
		delete(m.txs, state)
	}
	return tx, ok
}

// Len returns the number of pending transactions
func (m *MemoryTransactions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// expire must be called with m.mu held
func (m *MemoryTransactions) expire() {
	cutoff := m.now().Add(-m.ttl)
	for state, tx := range m.txs {
		if tx.CreatedAt.Before(cutoff) {
			delete(m.txs, state)
		}
	}
}
