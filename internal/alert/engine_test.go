package alert

import (
	"context"
	"errors"
	"sync"
	"testing"

	"soc-platform/internal/event"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (n *recordingNotifier) Notify(ctx context.Context, ruleName, severity string, ev event.LogEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, ruleName+"/"+ev.ID)
	if n.fail {
		return errors.New("transport down")
	}
	return nil
}

func testEvent(tenant string, sev event.Severity) event.LogEvent {
	ev, err := event.Normalize(event.RawEvent{
		TenantID:  tenant,
		Timestamp: "2026-08-27T10:00:00Z",
		Host:      "web-1",
		Service:   "nginx",
		Message:   "disk failure",
		Severity:  string(sev),
		Source:    "api",
	})
	if err != nil {
		panic(err)
	}
	return ev
}

func seedRule(t *testing.T, repo *MemoryRepo, tenant, name string, cond map[string]any, enabled bool) {
	t.Helper()
	_, err := repo.Create(context.Background(), Rule{
		TenantID:  tenant,
		Name:      name,
		Condition: cond,
		Severity:  "high",
		Enabled:   enabled,
	})
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}
}

func TestEvaluate_FiresOnConditionMatch(t *testing.T) {
	repo := NewMemoryRepo()
	notifier := &recordingNotifier{}
	eng := NewEngine(repo, notifier, nil)

	seedRule(t, repo, "tenant-1", "critical-events", map[string]any{"severity": "critical"}, true)

	if err := eng.Evaluate(context.Background(), testEvent("tenant-1", event.SeverityCritical)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if err := eng.Evaluate(context.Background(), testEvent("tenant-1", event.SeverityInfo)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(notifier.calls))
	}
}

func TestEvaluate_EmptyConditionIsCatchAll(t *testing.T) {
	repo := NewMemoryRepo()
	notifier := &recordingNotifier{}
	eng := NewEngine(repo, notifier, nil)

	seedRule(t, repo, "tenant-1", "catch-all", map[string]any{}, true)

	if err := eng.Evaluate(context.Background(), testEvent("tenant-1", event.SeverityDebug)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if err := eng.Evaluate(context.Background(), testEvent("tenant-2", event.SeverityDebug)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("catch-all must fire for its tenant only, got %d calls", len(notifier.calls))
	}
}

func TestEvaluate_SkipsDisabledAndOtherTenants(t *testing.T) {
	repo := NewMemoryRepo()
	notifier := &recordingNotifier{}
	eng := NewEngine(repo, notifier, nil)

	seedRule(t, repo, "tenant-1", "disabled", map[string]any{}, false)
	seedRule(t, repo, "tenant-2", "other-tenant", map[string]any{}, true)

	if err := eng.Evaluate(context.Background(), testEvent("tenant-1", event.SeverityError)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.calls))
	}
}

func TestEvaluate_OneNotificationPerMatchingRule(t *testing.T) {
	repo := NewMemoryRepo()
	notifier := &recordingNotifier{}
	eng := NewEngine(repo, notifier, nil)

	seedRule(t, repo, "tenant-1", "rule-a", map[string]any{"severity": "critical"}, true)
	seedRule(t, repo, "tenant-1", "rule-b", map[string]any{"host": "web-1"}, true)

	if err := eng.Evaluate(context.Background(), testEvent("tenant-1", event.SeverityCritical)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.calls) != 2 {
		t.Fatalf("expected 2 notifications (one per rule), got %d", len(notifier.calls))
	}
}

func TestEvaluate_NotifierFailureDoesNotAbort(t *testing.T) {
	repo := NewMemoryRepo()
	notifier := &recordingNotifier{fail: true}
	eng := NewEngine(repo, notifier, nil)

	seedRule(t, repo, "tenant-1", "rule-a", map[string]any{}, true)
	seedRule(t, repo, "tenant-1", "rule-b", map[string]any{}, true)

	if err := eng.Evaluate(context.Background(), testEvent("tenant-1", event.SeverityError)); err != nil {
		t.Fatalf("evaluate should swallow notifier errors, got %v", err)
	}
	if len(notifier.calls) != 2 {
		t.Fatalf("expected both rules attempted, got %d", len(notifier.calls))
	}
}

func TestMatches_MetadataLookup(t *testing.T) {
	ev := testEvent("tenant-1", event.SeverityInfo)
	ev.Metadata["region"] = "eu-west-1"

	rule := Rule{Condition: map[string]any{"region": "eu-west-1", "service": "nginx"}}
	if !Matches(rule, ev) {
		t.Fatalf("expected match on metadata + top-level fields")
	}

	rule.Condition["region"] = "us-east-1"
	if Matches(rule, ev) {
		t.Fatalf("expected mismatch")
	}
}

func TestMatches_NonScalarConditionNeverMatches(t *testing.T) {
	ev := testEvent("tenant-1", event.SeverityInfo)
	rule := Rule{Condition: map[string]any{"metadata": map[string]any{}}}
	if Matches(rule, ev) {
		t.Fatalf("expected non-scalar condition to never match")
	}
}
