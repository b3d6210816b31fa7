package auth

import (
	"testing"
	"time"

	"soc-platform/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret: "secret",
		JWTIssuer: "soc-platform",
		TokenTTL:  8 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := testManager(t)

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, Principal{ID: "user-1", Email: "admin@soc.local", Role: "admin", TenantID: "tenant-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.ID != "user-1" || p.Email != "admin@soc.local" || p.Role != "admin" || p.TenantID != "tenant-1" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	m := testManager(t)

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, Principal{ID: "u", Role: "analyst", TenantID: "t"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(9*time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	m := testManager(t)
	other, err := NewManager(config.AuthConfig{JWTSecret: "other", JWTIssuer: "soc-platform", TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Now().UTC()
	tok, err := other.Issue(now, Principal{ID: "u", Role: "analyst", TenantID: "t"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestIssue_RequiresTenant(t *testing.T) {
	m := testManager(t)
	if _, err := m.Issue(time.Now(), Principal{ID: "u", Role: "analyst"}); err == nil {
		t.Fatalf("expected error for missing tenant")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("ChangeMe123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword("ChangeMe123!", h) {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword("wrong", h) {
		t.Fatalf("expected mismatch to fail")
	}
}
