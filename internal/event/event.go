package event

import "time"

// Severity is the closed severity enum for log events.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// ParseSeverity validates a severity literal.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityDebug, SeverityInfo, SeverityWarn, SeverityError, SeverityCritical:
		return Severity(s), true
	default:
		return "", false
	}
}

// LogEvent is the canonical, immutable event flowing through the pipeline.
//
// Invariants:
// - TenantID is never empty once normalized.
// - Identity is ID; the pipeline does not enforce global uniqueness
//   (replays of the durable queue can deliver the same ID twice).
type LogEvent struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenantId"`
	Timestamp time.Time      `json:"timestamp"`
	Host      string         `json:"host"`
	Service   string         `json:"service"`
	Message   string         `json:"message"`
	Severity  Severity       `json:"severity"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata"`
}

// PartitionDate is the UTC calendar date the event belongs to.
// It names the daily index partition the event is written into.
func (e LogEvent) PartitionDate() string {
	return e.Timestamp.UTC().Format("2006-01-02")
}

// Field looks up a value for alert-rule matching: top-level attributes
// first, then metadata entries by key.
func (e LogEvent) Field(key string) (any, bool) {
	switch key {
	case "id":
		return e.ID, true
	case "tenantId":
		return e.TenantID, true
	case "timestamp":
		return e.Timestamp.UTC().Format(time.RFC3339), true
	case "host":
		return e.Host, true
	case "service":
		return e.Service, true
	case "message":
		return e.Message, true
	case "severity":
		return string(e.Severity), true
	case "source":
		return e.Source, true
	}
	v, ok := e.Metadata[key]
	return v, ok
}
