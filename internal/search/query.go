package search

import "time"

const (
	defaultPageSize = 20
	// maxPageSize bounds result sets regardless of caller input.
	maxPageSize = 100
)

// Params are the optional search filters. Zero values mean "not filtered".
type Params struct {
	// Query is a free-text match against the message field.
	Query    string
	Severity string
	Source   string
	// Start/End bound the timestamp range inclusively.
	Start time.Time
	End   time.Time

	// Offset-based pagination.
	Page int
	Size int
}

func (p Params) page() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func (p Params) size() int {
	if p.Size <= 0 {
		return defaultPageSize
	}
	if p.Size > maxPageSize {
		return maxPageSize
	}
	return p.Size
}

// buildSearchBody assembles the boolean-AND query document.
//
// The tenant term is always the first must clause: it is the sole
// tenant-isolation boundary for search reads and must be present
// regardless of caller-supplied filters.
func buildSearchBody(tenantID string, p Params) map[string]any {
	must := []map[string]any{
		{"term": map[string]any{"tenantId": tenantID}},
	}
	if p.Query != "" {
		must = append(must, map[string]any{"match": map[string]any{"message": p.Query}})
	}
	if p.Severity != "" {
		must = append(must, map[string]any{"term": map[string]any{"severity": p.Severity}})
	}
	if p.Source != "" {
		must = append(must, map[string]any{"term": map[string]any{"source": p.Source}})
	}
	if !p.Start.IsZero() || !p.End.IsZero() {
		rng := map[string]any{}
		if !p.Start.IsZero() {
			rng["gte"] = p.Start.UTC().Format(time.RFC3339)
		}
		if !p.End.IsZero() {
			rng["lte"] = p.End.UTC().Format(time.RFC3339)
		}
		must = append(must, map[string]any{"range": map[string]any{"timestamp": rng}})
	}

	return map[string]any{
		"from":  (p.page() - 1) * p.size(),
		"size":  p.size(),
		"query": map[string]any{"bool": map[string]any{"must": must}},
		"sort":  []map[string]any{{"timestamp": "desc"}},
	}
}
