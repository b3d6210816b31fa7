// Command seed provisions a demo admin account and one indexed log event
// so a fresh deployment can be exercised end to end.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"soc-platform/internal/auth"
	"soc-platform/internal/config"
	"soc-platform/internal/event"
	"soc-platform/internal/rbac"
	"soc-platform/internal/search"
	"soc-platform/pkg/logger"
	"soc-platform/pkg/utils"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	demoEmail    = "admin@soc.local"
	demoPassword = "ChangeMe123!"
	demoTenant   = "tenant-1"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	const upsert = `
INSERT INTO users (id, tenant_id, email, password_hash, role, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (email) DO NOTHING
`
	if _, err := db.ExecContext(ctx, upsert,
		uuid.NewString(),
		demoTenant,
		demoEmail,
		hash,
		rbac.RoleAdmin,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	store, err := search.NewStore(cfg.Search.URL, cfg.Search.IndexPrefix, log)
	if err != nil {
		return fmt.Errorf("open search store: %w", err)
	}
	if err := store.EnsureTemplate(ctx); err != nil {
		return fmt.Errorf("ensure index template: %w", err)
	}

	demo := event.New(demoTenant, "demo-host", "auth-service", "Demo log event",
		event.SeverityInfo, "seed", map[string]any{"demo": true})
	if err := store.IndexEvent(ctx, demo); err != nil {
		return fmt.Errorf("index demo event: %w", err)
	}

	log.Info("seeded demo user and log event", "email", demoEmail, "tenant", demoTenant)
	return nil
}
