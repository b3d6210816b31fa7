package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"soc-platform/internal/alert"
	"soc-platform/internal/audit"
	"soc-platform/internal/auth"
	"soc-platform/internal/event"
	"soc-platform/internal/query"
	"soc-platform/internal/search"
	"soc-platform/internal/user"
	"soc-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Processor accepts a validated event for side-effect fanout.
type Processor interface {
	Process(ctx context.Context, ev event.LogEvent)
}

// Searcher serves tenant-scoped index reads.
type Searcher interface {
	Search(ctx context.Context, tenantID string, p search.Params) (json.RawMessage, error)
}

// Handlers holds the route implementations and their collaborators.
type Handlers struct {
	tokens   *auth.Manager
	users    user.Repository
	audits   *audit.Service
	alerts   alert.Repository
	queries  query.Repository
	search   Searcher
	pipeline Processor
	clock    func() time.Time
}

func NewHandlers(
	tokens *auth.Manager,
	users user.Repository,
	audits *audit.Service,
	alerts alert.Repository,
	queries query.Repository,
	searcher Searcher,
	pipeline Processor,
) *Handlers {
	return &Handlers{
		tokens:   tokens,
		users:    users,
		audits:   audits,
		alerts:   alerts,
		queries:  queries,
		search:   searcher,
		pipeline: pipeline,
		clock:    time.Now,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) valid() bool {
	return strings.Contains(r.Email, "@") && len(r.Password) >= 8
}

// Login authenticates a user and returns a signed token.
//
// Every attempt is audited, including malformed payloads and unknown
// users; those record under the "unknown" tenant and actor since no
// identity was established.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		email := req.Email
		if email == "" {
			email = audit.UnknownActor
		}
		h.auditLogin(c, audit.UnknownActor, audit.UnknownActor, email, http.StatusBadRequest, false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login payload"})
		return
	}

	u, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			logger.FromGin(c).Error("user lookup failed", "err", err)
		}
		h.auditLogin(c, audit.UnknownActor, audit.UnknownActor, req.Email, http.StatusUnauthorized, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.VerifyPassword(req.Password, u.PasswordHash) {
		h.auditLogin(c, u.TenantID, u.ID, u.Email, http.StatusUnauthorized, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(h.clock(), auth.Principal{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
	})
	if err != nil {
		logger.FromGin(c).Error("token issue failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	h.auditLogin(c, u.TenantID, u.ID, u.Email, http.StatusOK, true)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handlers) auditLogin(c *gin.Context, tenantID, actorID, actorEmail string, status int, ok bool) {
	entry := audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		Action:     "POST /api/v1/auth/login",
		Method:     http.MethodPost,
		Path:       "/api/v1/auth/login",
		Status:     status,
		IP:         c.ClientIP(),
		Metadata:   map[string]any{"login": ok},
	}
	if err := h.audits.Record(context.WithoutCancel(c.Request.Context()), entry); err != nil {
		logger.FromGin(c).Error("login audit failed", "err", err)
	}
}

// Ingest accepts a batch of events. The whole batch is validated before
// any side effect runs: one invalid event rejects the batch, and an event
// claiming a foreign tenant rejects it with 403.
func (h *Handlers) Ingest(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var raws []event.RawEvent
	if err := c.ShouldBindJSON(&raws); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected array of events"})
		return
	}

	events := make([]event.LogEvent, 0, len(raws))
	for _, raw := range raws {
		ev, err := event.Normalize(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if ev.TenantID != p.TenantID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Tenant mismatch"})
			return
		}
		events = append(events, ev)
	}

	for _, ev := range events {
		h.pipeline.Process(c.Request.Context(), ev)
	}
	c.JSON(http.StatusOK, gin.H{"ingested": len(events)})
}

type syslogRelayRequest struct {
	Message  string         `json:"message"`
	Host     string         `json:"host"`
	Service  string         `json:"service"`
	Severity string         `json:"severity"`
	Metadata map[string]any `json:"metadata"`
}

// SyslogRelay accepts a single pre-collected syslog line over the
// authenticated API, attributed to the caller's tenant.
func (h *Handlers) SyslogRelay(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req syslogRelayRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing syslog message"})
		return
	}

	sev := event.SeverityInfo
	if req.Severity != "" {
		parsed, ok := event.ParseSeverity(req.Severity)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity"})
			return
		}
		sev = parsed
	}

	host := req.Host
	if host == "" {
		host = "syslog"
	}
	svc := req.Service
	if svc == "" {
		svc = "syslog"
	}

	ev := event.New(p.TenantID, host, svc, req.Message, sev, "syslog", req.Metadata)
	h.pipeline.Process(c.Request.Context(), ev)
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

type webhookRequest struct {
	Source   string `json:"source"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Webhook converts a third-party integration callback into an event. The
// full payload is preserved as metadata.
func (h *Handlers) Webhook(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}
	var req webhookRequest
	raw, _ := json.Marshal(body)
	_ = json.Unmarshal(raw, &req)

	if req.Source == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}
	sev := event.SeverityInfo
	if req.Severity != "" {
		parsed, ok := event.ParseSeverity(req.Severity)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
			return
		}
		sev = parsed
	}

	ev := event.New(p.TenantID, "webhook", req.Source, req.Message, sev, "webhook", body)
	h.pipeline.Process(c.Request.Context(), ev)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// Search proxies a tenant-scoped query to the index and relays the raw
// engine response.
func (h *Handlers) Search(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	params := search.Params{
		Query:    c.Query("q"),
		Severity: c.Query("level"),
		Source:   c.Query("source"),
		Page:     atoiDefault(c.Query("page"), 0),
		Size:     atoiDefault(c.Query("size"), 0),
	}
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time"})
			return
		}
		params.Start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end time"})
			return
		}
		params.End = t
	}

	body, err := h.search.Search(c.Request.Context(), p.TenantID, params)
	if err != nil {
		logger.FromGin(c).Error("search failed", "tenant", p.TenantID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "search unavailable"})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// ListAlerts returns every rule of the caller's tenant.
func (h *Handlers) ListAlerts(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	rules, err := h.alerts.List(c.Request.Context(), p.TenantID)
	if err != nil {
		logger.FromGin(c).Error("list alert rules failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list alert rules"})
		return
	}
	if rules == nil {
		rules = []alert.Rule{}
	}
	c.JSON(http.StatusOK, rules)
}

type alertRuleRequest struct {
	Name      string         `json:"name"`
	Condition map[string]any `json:"condition"`
	Severity  string         `json:"severity"`
	Enabled   *bool          `json:"enabled"`
}

// CreateAlert stores a new rule under the caller's tenant. Enabled
// defaults to true when omitted.
func (h *Handlers) CreateAlert(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req alertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Severity == "" || req.Condition == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert rule"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	rule, err := h.alerts.Create(c.Request.Context(), alert.Rule{
		TenantID:  p.TenantID,
		Name:      req.Name,
		Condition: req.Condition,
		Severity:  req.Severity,
		Enabled:   enabled,
	})
	if err != nil {
		if errors.Is(err, alert.ErrInvalidRule) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert rule"})
			return
		}
		if errors.Is(err, alert.ErrDuplicateRule) {
			c.JSON(http.StatusConflict, gin.H{"error": "Alert rule already exists"})
			return
		}
		logger.FromGin(c).Error("create alert rule failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create alert rule"})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// ListQueries returns the caller's saved queries.
func (h *Handlers) ListQueries(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	queries, err := h.queries.List(c.Request.Context(), p.TenantID)
	if err != nil {
		logger.FromGin(c).Error("list saved queries failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list saved queries"})
		return
	}
	if queries == nil {
		queries = []query.SavedQuery{}
	}
	c.JSON(http.StatusOK, queries)
}

type savedQueryRequest struct {
	Name  string         `json:"name"`
	Query map[string]any `json:"query"`
}

// CreateQuery stores a named query under the caller's tenant.
func (h *Handlers) CreateQuery(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req savedQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Query == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid saved query"})
		return
	}

	sq, err := h.queries.Create(c.Request.Context(), query.SavedQuery{
		TenantID: p.TenantID,
		Name:     req.Name,
		Query:    req.Query,
	})
	if err != nil {
		if errors.Is(err, query.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid saved query"})
			return
		}
		logger.FromGin(c).Error("create saved query failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create saved query"})
		return
	}
	c.JSON(http.StatusCreated, sq)
}

// ListAudit returns the caller tenant's newest audit entries, optionally
// filtered by actor email and action.
func (h *Handlers) ListAudit(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entries, err := h.audits.List(c.Request.Context(), p.TenantID, audit.ListFilter{
		ActorEmail: c.Query("actor"),
		Action:     c.Query("action"),
	})
	if err != nil {
		logger.FromGin(c).Error("list audit entries failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list audit entries"})
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

// Healthz reports process liveness.
func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
