package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawEvent mirrors the wire shape of caller-supplied events before validation.
type RawEvent struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenantId"`
	Timestamp string         `json:"timestamp"`
	Host      string         `json:"host"`
	Service   string         `json:"service"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata"`
}

// ValidationError names the offending field of a rejected payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: field %q %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Normalize validates a raw payload into a canonical LogEvent.
//
// An absent id is allowed and replaced with a fresh UUID; a present id
// must be a well-formed UUID. Metadata defaults to an empty map.
// Tenant ownership (event tenant == caller tenant) is enforced by the
// auth layer, not here.
func Normalize(raw RawEvent) (LogEvent, error) {
	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return LogEvent{}, invalid("id", "must be a UUID")
	}

	if raw.TenantID == "" {
		return LogEvent{}, invalid("tenantId", "is required")
	}

	if raw.Timestamp == "" {
		return LogEvent{}, invalid("timestamp", "is required")
	}
	ts, err := time.Parse(time.RFC3339, raw.Timestamp)
	if err != nil {
		return LogEvent{}, invalid("timestamp", "must be a valid RFC 3339 instant")
	}

	if raw.Host == "" {
		return LogEvent{}, invalid("host", "is required")
	}
	if raw.Service == "" {
		return LogEvent{}, invalid("service", "is required")
	}
	if raw.Message == "" {
		return LogEvent{}, invalid("message", "is required")
	}

	sev, ok := ParseSeverity(raw.Severity)
	if !ok {
		return LogEvent{}, invalid("severity", "must be one of debug, info, warn, error, critical")
	}

	if raw.Source == "" {
		return LogEvent{}, invalid("source", "is required")
	}

	meta := raw.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	return LogEvent{
		ID:        id,
		TenantID:  raw.TenantID,
		Timestamp: ts,
		Host:      raw.Host,
		Service:   raw.Service,
		Message:   raw.Message,
		Severity:  sev,
		Source:    raw.Source,
		Metadata:  meta,
	}, nil
}

// New builds a canonical event for ingress paths that synthesize events
// themselves (syslog, webhook intake).
func New(tenantID, host, service, message string, sev Severity, source string, metadata map[string]any) LogEvent {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return LogEvent{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
		Host:      host,
		Service:   service,
		Message:   message,
		Severity:  sev,
		Source:    source,
		Metadata:  metadata,
	}
}
