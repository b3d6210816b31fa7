package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"soc-platform/internal/event"
)

func sampleEvent() event.LogEvent {
	return event.New("tenant-1", "web-1", "nginx", "disk failure", event.SeverityCritical, "api", nil)
}

func TestWebhook_PostsEnvelope(t *testing.T) {
	var got envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	ev := sampleEvent()
	if err := NewWebhook(srv.URL).Notify(context.Background(), "critical-events", "high", ev); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.RuleName != "critical-events" || got.Severity != "high" || got.Event.ID != ev.ID {
		t.Fatalf("unexpected envelope: %+v", got)
	}
}

func TestWebhook_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL).Notify(context.Background(), "r", "s", sampleEvent()); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

type failing struct{}

func (failing) Notify(ctx context.Context, ruleName, severity string, ev event.LogEvent) error {
	return errors.New("down")
}

type counting struct{ n int }

func (c *counting) Notify(ctx context.Context, ruleName, severity string, ev event.LogEvent) error {
	c.n++
	return nil
}

func TestFanout_AllChannelsAttempted(t *testing.T) {
	ok := &counting{}
	f := NewFanout(failing{}, ok)

	err := f.Notify(context.Background(), "r", "s", sampleEvent())
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.n != 1 {
		t.Fatalf("expected healthy channel attempted, got %d", ok.n)
	}
}

func TestBuild_EmptyConfigIsNoop(t *testing.T) {
	n := Build("", "", 25, nil)
	if err := n.Notify(context.Background(), "r", "s", sampleEvent()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
