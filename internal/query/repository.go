package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidQuery = errors.New("query: invalid saved query")

// Repository is the persistence contract for saved queries.
type Repository interface {
	List(ctx context.Context, tenantID string) ([]SavedQuery, error)
	Create(ctx context.Context, q SavedQuery) (SavedQuery, error)
}

// PostgresRepo stores saved queries in the saved_queries table (query as JSONB).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) List(ctx context.Context, tenantID string) ([]SavedQuery, error) {
	const q = `
SELECT id, tenant_id, name, query, created_at
FROM saved_queries
WHERE tenant_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedQuery
	for rows.Next() {
		var sq SavedQuery
		var body []byte
		if err := rows.Scan(&sq.ID, &sq.TenantID, &sq.Name, &body, &sq.CreatedAt); err != nil {
			return nil, err
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &sq.Query); err != nil {
				return nil, err
			}
		}
		if sq.Query == nil {
			sq.Query = map[string]any{}
		}
		out = append(out, sq)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, sq SavedQuery) (SavedQuery, error) {
	sq, err := prepare(sq)
	if err != nil {
		return SavedQuery{}, err
	}

	body, err := json.Marshal(sq.Query)
	if err != nil {
		return SavedQuery{}, err
	}
	const q = `
INSERT INTO saved_queries (id, tenant_id, name, query, created_at)
VALUES ($1,$2,$3,$4,$5)
`
	if _, err := r.db.ExecContext(ctx, q, sq.ID, sq.TenantID, sq.Name, body, sq.CreatedAt); err != nil {
		return SavedQuery{}, err
	}
	return sq, nil
}

func prepare(sq SavedQuery) (SavedQuery, error) {
	if sq.TenantID == "" || sq.Name == "" {
		return SavedQuery{}, ErrInvalidQuery
	}
	if sq.ID == "" {
		sq.ID = uuid.NewString()
	}
	if sq.Query == nil {
		sq.Query = map[string]any{}
	}
	if sq.CreatedAt.IsZero() {
		sq.CreatedAt = time.Now().UTC()
	}
	return sq, nil
}
