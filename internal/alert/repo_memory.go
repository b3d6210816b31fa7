package alert

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory rule store useful for tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	rules []Rule
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListEnabled(ctx context.Context, tenantID string) ([]Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Rule
	for _, rule := range r.rules {
		if rule.TenantID == tenantID && rule.Enabled {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *MemoryRepo) List(ctx context.Context, tenantID string) ([]Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Rule
	for _, rule := range r.rules {
		if rule.TenantID == tenantID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, rule Rule) (Rule, error) {
	if rule.TenantID == "" || rule.Name == "" || rule.Severity == "" {
		return Rule{}, ErrInvalidRule
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.Condition == nil {
		rule.Condition = map[string]any{}
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rules {
		if existing.TenantID == rule.TenantID && existing.Name == rule.Name {
			return Rule{}, ErrDuplicateRule
		}
	}
	r.rules = append(r.rules, rule)
	return rule, nil
}
