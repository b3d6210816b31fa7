package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"soc-platform/internal/event"
)

// Notifier delivers alert firings. Delivery is best-effort: failures are
// returned for logging but must never be re-raised to the ingestion caller.
type Notifier interface {
	Notify(ctx context.Context, ruleName, severity string, ev event.LogEvent) error
}

// envelope is the webhook wire shape.
type envelope struct {
	RuleName string         `json:"ruleName"`
	Severity string         `json:"severity"`
	Event    event.LogEvent `json:"event"`
}

// Webhook POSTs a JSON envelope to the configured URL.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Notify(ctx context.Context, ruleName, severity string, ev event.LogEvent) error {
	body, err := json.Marshal(envelope{RuleName: ruleName, Severity: severity, Event: ev})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// SMTPStub stands in for a real mail transport: it records the firing in
// the process log. Kept as its own channel so a real SMTP sender can be
// dropped in without touching the engine.
type SMTPStub struct {
	host string
	port int
	log  *slog.Logger
}

func NewSMTPStub(host string, port int, log *slog.Logger) *SMTPStub {
	if log == nil {
		log = slog.Default()
	}
	return &SMTPStub{host: host, port: port, log: log}
}

func (s *SMTPStub) Notify(ctx context.Context, ruleName, severity string, ev event.LogEvent) error {
	s.log.Info("smtp stub",
		"host", s.host,
		"port", s.port,
		"rule", ruleName,
		"severity", severity,
		"event", ev.ID,
	)
	return nil
}

// Fanout attempts every configured channel and reports the channel errors
// joined; one channel failing never prevents the others from trying.
type Fanout struct {
	channels []Notifier
}

func NewFanout(channels ...Notifier) *Fanout {
	return &Fanout{channels: channels}
}

func (f *Fanout) Notify(ctx context.Context, ruleName, severity string, ev event.LogEvent) error {
	var errs []error
	for _, ch := range f.channels {
		if err := ch.Notify(ctx, ruleName, severity, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("%d notification channels failed: %v", len(errs), errs)
}

// Build assembles the fanout from configuration. Absent settings mean the
// corresponding channel is simply not registered.
func Build(webhookURL, smtpHost string, smtpPort int, log *slog.Logger) Notifier {
	var channels []Notifier
	if webhookURL != "" {
		channels = append(channels, NewWebhook(webhookURL))
	}
	if smtpHost != "" {
		channels = append(channels, NewSMTPStub(smtpHost, smtpPort, log))
	}
	return NewFanout(channels...)
}
