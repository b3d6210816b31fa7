package alert

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"soc-platform/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrInvalidRule = errors.New("alert: invalid rule")

	// ErrDuplicateRule marks a create whose name is already taken within
	// the tenant. Rule names identify rules in notifications, so they are
	// kept unique per tenant.
	ErrDuplicateRule = errors.New("alert: rule name already exists for tenant")
)

// Repository is the persistence contract for alert rules.
// The evaluation engine only reads; mutation happens via the rule API.
type Repository interface {
	ListEnabled(ctx context.Context, tenantID string) ([]Rule, error)
	List(ctx context.Context, tenantID string) ([]Rule, error)
	Create(ctx context.Context, r Rule) (Rule, error)
}

// PostgresRepo stores rules in the alert_rules table (condition as JSONB).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListEnabled(ctx context.Context, tenantID string) ([]Rule, error) {
	const q = `
SELECT id, tenant_id, name, condition, severity, enabled, created_at
FROM alert_rules
WHERE tenant_id = $1 AND enabled = TRUE
`
	return r.query(ctx, q, tenantID)
}

func (r *PostgresRepo) List(ctx context.Context, tenantID string) ([]Rule, error) {
	const q = `
SELECT id, tenant_id, name, condition, severity, enabled, created_at
FROM alert_rules
WHERE tenant_id = $1
ORDER BY created_at DESC
`
	return r.query(ctx, q, tenantID)
}

func (r *PostgresRepo) Create(ctx context.Context, rule Rule) (Rule, error) {
	if rule.TenantID == "" || rule.Name == "" || rule.Severity == "" {
		return Rule{}, ErrInvalidRule
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.Condition == nil {
		rule.Condition = map[string]any{}
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	cond, err := json.Marshal(rule.Condition)
	if err != nil {
		return Rule{}, err
	}

	// The existence check and the insert must see the same state, so both
	// run in one transaction with the name row locked.
	err = utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const dup = `
SELECT id FROM alert_rules
WHERE tenant_id = $1 AND name = $2
FOR UPDATE
`
		var existing string
		switch err := tx.QueryRowContext(ctx, dup, rule.TenantID, rule.Name).Scan(&existing); {
		case err == nil:
			return ErrDuplicateRule
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		const ins = `
INSERT INTO alert_rules (id, tenant_id, name, condition, severity, enabled, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
		_, err := tx.ExecContext(ctx, ins,
			rule.ID,
			rule.TenantID,
			rule.Name,
			cond,
			rule.Severity,
			rule.Enabled,
			rule.CreatedAt,
		)
		return err
	})
	if err != nil {
		return Rule{}, err
	}
	return rule, nil
}

func (r *PostgresRepo) query(ctx context.Context, q, tenantID string) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var rule Rule
		var cond []byte
		if err := rows.Scan(
			&rule.ID,
			&rule.TenantID,
			&rule.Name,
			&cond,
			&rule.Severity,
			&rule.Enabled,
			&rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(cond) > 0 {
			if err := json.Unmarshal(cond, &rule.Condition); err != nil {
				return nil, err
			}
		}
		if rule.Condition == nil {
			rule.Condition = map[string]any{}
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
