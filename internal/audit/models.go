package audit

import "time"

// Entry is an immutable, append-only audit record of one authenticated
// HTTP request's outcome.
//
// Invariants:
// - Entries are never updated or deleted.
// - tenant_id is required; login failures use the "unknown" tenant/actor
//   because no principal exists yet on that route.
// - Recording is best-effort; a failed audit write never blocks the response.
type Entry struct {
	ID         string         `json:"id" db:"id"`
	TenantID   string         `json:"tenantId" db:"tenant_id"`
	ActorID    string         `json:"actorId" db:"actor_id"`
	ActorEmail string         `json:"actorEmail" db:"actor_email"`

	// Action is "<METHOD> <path>".
	Action string `json:"action" db:"action"`
	Method string `json:"method" db:"method"`
	Path   string `json:"path" db:"path"`
	Status int    `json:"status" db:"status"`
	IP     string `json:"ip" db:"ip"`

	// Metadata holds context-specific details (query, body excerpt, login outcome).
	Metadata map[string]any `json:"metadata" db:"metadata"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UnknownActor is recorded when no principal can be resolved (failed login).
const UnknownActor = "unknown"
