package audit

import (
	"context"
	"database/sql"
	"encoding/json"
)

// ListFilter narrows audit queries. Zero values mean no filtering.
type ListFilter struct {
	ActorEmail string
	Action     string
	Limit      int
}

// Repository is the persistence contract for audit entries.
//
// It MUST be append-only. There are no Update/Delete methods.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, tenantID string, f ListFilter) ([]Entry, error)
}

// PostgresRepo stores audit entries in the audit_entries table
// (INSERT-only; metadata as JSONB).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO audit_entries (
  id, tenant_id, actor_id, actor_email, action, method, path, status, ip, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
`
	_, err = r.db.ExecContext(ctx, q,
		e.ID,
		e.TenantID,
		e.ActorID,
		e.ActorEmail,
		e.Action,
		e.Method,
		e.Path,
		e.Status,
		e.IP,
		meta,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, tenantID string, f ListFilter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	const q = `
SELECT id, tenant_id, actor_id, actor_email, action, method, path, status, ip, metadata, created_at
FROM audit_entries
WHERE tenant_id = $1
  AND ($2 = '' OR actor_email = $2)
  AND ($3 = '' OR action = $3)
ORDER BY created_at DESC
LIMIT $4
`
	rows, err := r.db.QueryContext(ctx, q, tenantID, f.ActorEmail, f.Action, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var meta []byte
		if err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&e.ActorID,
			&e.ActorEmail,
			&e.Action,
			&e.Method,
			&e.Path,
			&e.Status,
			&e.IP,
			&meta,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
