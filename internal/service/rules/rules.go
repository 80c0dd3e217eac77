// Package rules holds the free-text business rule document that constrains replies.
package rules

import (
	"context"
	"sync"
)

// DefaultRules is the policy used until an operator replaces it.
const DefaultRules = `RULE 1: Returns are accepted within 14 days of purchase.
RULE 2: If the customer states a period longer than 14 days (for example "it has been 20 days"), firmly decline the return and politely explain that the return window has passed.
RULE 3: Products with opened packaging cannot be returned.
RULE 4: Shipping costs a flat 50 TL for orders under 500 TL.`

// Store is the process-wide rule document. Writes are last-write-wins and
// unvalidated; readers see either the previous or the new document.
type Store interface {
	Rules(ctx context.Context) string
	SetRules(ctx context.Context, text string) error
}

// MemoryStore keeps the document in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	text string
}

// NewMemoryStore creates a store seeded with initial, or DefaultRules when empty.
func NewMemoryStore(initial string) *MemoryStore {
	if initial == "" {
		initial = DefaultRules
	}
	return &MemoryStore{text: initial}
}

func (s *MemoryStore) Rules(ctx context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

func (s *MemoryStore) SetRules(ctx context.Context, text string) error {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	return nil
}
