package query

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory saved-query store useful for tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	queries []SavedQuery
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) List(ctx context.Context, tenantID string) ([]SavedQuery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SavedQuery
	for _, sq := range r.queries {
		if sq.TenantID == tenantID {
			out = append(out, sq)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, sq SavedQuery) (SavedQuery, error) {
	sq, err := prepare(sq)
	if err != nil {
		return SavedQuery{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, sq)
	return sq, nil
}
