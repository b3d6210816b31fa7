package alert

import (
	"context"
	"fmt"
	"log/slog"

	"soc-platform/internal/event"
)

// Notifier delivers one firing to the configured channels.
type Notifier interface {
	Notify(ctx context.Context, ruleName, severity string, ev event.LogEvent) error
}

// Engine matches events against a tenant's enabled rules and dispatches
// exactly one notification attempt per matching rule.
//
// Evaluation is synchronous relative to ingestion, but a notification
// failure never aborts the current event or the remaining rules.
type Engine struct {
	rules    Repository
	notifier Notifier
	log      *slog.Logger

	// onFire is an optional hook incremented per dispatched notification.
	onFire func()
}

func NewEngine(rules Repository, notifier Notifier, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{rules: rules, notifier: notifier, log: log}
}

// SetFireHook installs a counter hook called once per dispatched notification.
func (e *Engine) SetFireHook(fn func()) { e.onFire = fn }

// Evaluate loads the tenant's enabled rules and fires matching ones.
// It returns an error only when the rule set cannot be loaded.
func (e *Engine) Evaluate(ctx context.Context, ev event.LogEvent) error {
	rules, err := e.rules.ListEnabled(ctx, ev.TenantID)
	if err != nil {
		return fmt.Errorf("alert: load rules for tenant %s: %w", ev.TenantID, err)
	}

	for _, rule := range rules {
		if !Matches(rule, ev) {
			continue
		}
		if e.onFire != nil {
			e.onFire()
		}
		if e.notifier == nil {
			continue
		}
		if err := e.notifier.Notify(ctx, rule.Name, rule.Severity, ev); err != nil {
			e.log.Error("alert notification failed",
				"rule", rule.Name,
				"tenant", ev.TenantID,
				"event", ev.ID,
				"err", err,
			)
		}
	}
	return nil
}

// Matches reports whether every condition key has an equal literal value
// in the event. An empty condition trivially matches.
func Matches(rule Rule, ev event.LogEvent) bool {
	for key, want := range rule.Condition {
		got, ok := ev.Field(key)
		if !ok || !literalEqual(got, want) {
			return false
		}
	}
	return true
}

// literalEqual compares scalar JSON literals. Non-scalar condition values
// (objects, arrays) never match; conditions are flat by contract.
func literalEqual(got, want any) bool {
	switch want.(type) {
	case string, float64, bool, nil:
	default:
		return false
	}
	switch got.(type) {
	case string, float64, bool, nil:
	default:
		return false
	}
	return got == want
}
