package alert

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepo_CreateFillsDefaults(t *testing.T) {
	repo := NewMemoryRepo()

	rule, err := repo.Create(context.Background(), Rule{
		TenantID: "tenant-1",
		Name:     "critical-events",
		Severity: "high",
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rule.ID == "" || rule.CreatedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", rule)
	}
	if rule.Condition == nil {
		t.Fatalf("condition must default to an empty object")
	}
}

func TestMemoryRepo_CreateRejectsDuplicateNamePerTenant(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if _, err := repo.Create(ctx, Rule{TenantID: "tenant-1", Name: "critical-events", Severity: "high"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := repo.Create(ctx, Rule{TenantID: "tenant-1", Name: "critical-events", Severity: "low"})
	if !errors.Is(err, ErrDuplicateRule) {
		t.Fatalf("expected ErrDuplicateRule, got %v", err)
	}

	// Same name under another tenant is fine.
	if _, err := repo.Create(ctx, Rule{TenantID: "tenant-2", Name: "critical-events", Severity: "high"}); err != nil {
		t.Fatalf("cross-tenant create: %v", err)
	}
}
