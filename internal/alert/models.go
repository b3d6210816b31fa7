package alert

import "time"

// Rule is a tenant-owned predicate over event fields.
//
// Condition maps field names to literal values; a rule matches when
// every key has an equal value in the event. An empty condition matches
// all events, so {} is a catch-all.
type Rule struct {
	ID        string         `json:"id" db:"id"`
	TenantID  string         `json:"tenantId" db:"tenant_id"`
	Name      string         `json:"name" db:"name"`
	Condition map[string]any `json:"condition" db:"condition"`
	Severity  string         `json:"severity" db:"severity"`
	Enabled   bool           `json:"enabled" db:"enabled"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
