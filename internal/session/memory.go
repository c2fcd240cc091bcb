package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the allow-list in process memory. It backs tests and
// development runs without Postgres or Redis.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]map[string]time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]map[string]time.Time)}
}

func (m *MemoryStore) RecordLogin(_ context.Context, principalID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.tokens[principalID]
	if !ok {
		set = make(map[string]time.Time)
		m.tokens[principalID] = set
	}
	set[token] = expiresAt
	return nil
}

func (m *MemoryStore) IsValid(_ context.Context, principalID, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tokens[principalID][token]
	return ok, nil
}

func (m *MemoryStore) RevokeOne(_ context.Context, principalID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.tokens[principalID]; ok {
		delete(set, token)
		if len(set) == 0 {
			delete(m.tokens, principalID)
		}
	}
	return nil
}

func (m *MemoryStore) RevokeAll(_ context.Context, principalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, principalID)
	return nil
}

func (m *MemoryStore) Prune(_ context.Context, principalID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(principalID, now), nil
}

func (m *MemoryStore) PruneExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for principalID := range m.tokens {
		total += m.pruneLocked(principalID, now)
	}
	return total, nil
}

func (m *MemoryStore) pruneLocked(principalID string, now time.Time) int {
	set, ok := m.tokens[principalID]
	if !ok {
		return 0
	}
	removed := 0
	for token, exp := range set {
		if !now.Before(exp) {
			delete(set, token)
			removed++
		}
	}
	if len(set) == 0 {
		delete(m.tokens, principalID)
	}
	return removed
}

// Count returns how many tokens the principal holds.
func (m *MemoryStore) Count(principalID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens[principalID])
}
