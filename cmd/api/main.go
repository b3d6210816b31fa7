package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soc-platform/internal/alert"
	"soc-platform/internal/audit"
	"soc-platform/internal/auth"
	"soc-platform/internal/config"
	"soc-platform/internal/httpapi"
	"soc-platform/internal/ingest"
	"soc-platform/internal/notify"
	"soc-platform/internal/pipeline"
	"soc-platform/internal/query"
	"soc-platform/internal/queue"
	"soc-platform/internal/retention"
	"soc-platform/internal/search"
	"soc-platform/internal/user"
	"soc-platform/pkg/logger"
	"soc-platform/pkg/metrics"
	"soc-platform/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer rdb.Close()

	store, err := search.NewStore(cfg.Search.URL, cfg.Search.IndexPrefix, log)
	if err != nil {
		return fmt.Errorf("open search store: %w", err)
	}
	if err := store.EnsureTemplate(ctx); err != nil {
		return fmt.Errorf("ensure index template: %w", err)
	}

	m := metrics.New()

	notifier := notify.Build(cfg.Notify.WebhookURL, cfg.Notify.SMTPHost, cfg.Notify.SMTPPort, log)
	alertRepo := alert.NewPostgresRepo(db)
	engine := alert.NewEngine(alertRepo, notifier, log)
	engine.SetFireHook(m.AlertsFired.Inc)

	q := queue.NewClient(rdb, cfg.Redis.Stream, cfg.Redis.CheckpointKey, log)
	pipe := pipeline.New(q, store, engine, log, m)

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth manager: %w", err)
	}

	handlers := httpapi.NewHandlers(
		tokens,
		user.NewPostgresRepo(db),
		auditSvc,
		alertRepo,
		query.NewPostgresRepo(db),
		store,
		pipe,
	)

	// The consumer only re-indexes. Indexing is keyed by event id, so a
	// replayed entry overwrites its own document instead of duplicating it.
	go func() {
		if err := q.Consume(ctx, store.IndexEvent); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("queue consumer stopped", "err", err)
		}
	}()

	sweeper := retention.NewSweeper(store, cfg.Search.IndexPrefix, cfg.Retention.Days, log)
	sweeper.SetDeleteHook(m.PartitionsDeleted.Inc)
	go sweeper.Run(ctx)

	if cfg.Syslog.Enabled {
		sys := ingest.NewSyslogServer(cfg.Syslog.UDPPort, cfg.Syslog.TCPPort, cfg.Syslog.DefaultTenant, pipe, log)
		go func() {
			if err := sys.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("syslog server stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(cfg, log, m, rdb, tokens, auditSvc, handlers),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", srv.Addr, "https", cfg.TLS.Enabled)
		var err error
		if cfg.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.TLS.CertPath, cfg.TLS.KeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
