package query

import "time"

// SavedQuery is a named, tenant-owned search definition analysts reuse
// across investigations. The query body is stored opaquely.
type SavedQuery struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenantId"`
	Name      string         `json:"name"`
	Query     map[string]any `json:"query"`
	CreatedAt time.Time      `json:"createdAt"`
}
