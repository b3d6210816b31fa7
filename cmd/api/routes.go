package main

import (
	"log/slog"

	"soc-platform/internal/audit"
	"soc-platform/internal/auth"
	"soc-platform/internal/config"
	"soc-platform/internal/httpapi"
	"soc-platform/internal/rbac"
	"soc-platform/pkg/logger"
	"soc-platform/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newRouter(
	cfg config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	rdb *redis.Client,
	tokens *auth.Manager,
	auditSvc *audit.Service,
	h *httpapi.Handlers,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.Middleware(log),
		m.Middleware(),
		httpapi.RateLimit(httpapi.RedisLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window)),
	)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.POST("/api/v1/auth/login", h.Login)

	api := r.Group("/api/v1",
		auth.RequireToken(tokens),
		auth.EnforceTenant(),
		audit.Middleware(auditSvc),
	)
	api.POST("/ingest", rbac.RequireAnyRole(rbac.Writers()...), h.Ingest)
	api.POST("/syslog", rbac.RequireAnyRole(rbac.Writers()...), h.SyslogRelay)
	api.POST("/webhook", rbac.RequireAnyRole(rbac.Writers()...), h.Webhook)
	api.GET("/search", rbac.RequireAnyRole(rbac.Readers()...), h.Search)
	api.GET("/alerts", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleAnalyst, rbac.RoleAuditor), h.ListAlerts)
	api.POST("/alerts", rbac.RequireAnyRole(rbac.Writers()...), h.CreateAlert)
	api.GET("/queries", rbac.RequireAnyRole(rbac.Readers()...), h.ListQueries)
	api.POST("/queries", rbac.RequireAnyRole(rbac.Writers()...), h.CreateQuery)
	api.GET("/audit", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleAuditor), h.ListAudit)
	return r
}
