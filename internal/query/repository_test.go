package query

import (
	"context"
	"testing"
)

func TestMemoryRepo_CreateFillsDefaults(t *testing.T) {
	repo := NewMemoryRepo()

	sq, err := repo.Create(context.Background(), SavedQuery{TenantID: "tenant-1", Name: "failed logins"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sq.ID == "" || sq.CreatedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", sq)
	}
	if sq.Query == nil {
		t.Fatalf("query body must default to an empty object")
	}
}

func TestMemoryRepo_CreateRejectsMissingFields(t *testing.T) {
	repo := NewMemoryRepo()
	if _, err := repo.Create(context.Background(), SavedQuery{TenantID: "tenant-1"}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := repo.Create(context.Background(), SavedQuery{Name: "x"}); err == nil {
		t.Fatalf("expected error for missing tenant")
	}
}

func TestMemoryRepo_ListIsTenantScoped(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	repo.Create(ctx, SavedQuery{TenantID: "tenant-1", Name: "a"})
	repo.Create(ctx, SavedQuery{TenantID: "tenant-2", Name: "b"})

	out, err := repo.List(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].Name != "a" {
		t.Fatalf("unexpected listing: %+v", out)
	}
}
