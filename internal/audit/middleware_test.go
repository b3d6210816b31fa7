package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"soc-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_RecordsAuthenticatedRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()
	svc := NewService(repo)

	r := gin.New()
	r.POST("/api/v1/ingest", func(c *gin.Context) {
		p := auth.Principal{ID: "u1", Email: "admin@soc.local", Role: "admin", TenantID: "tenant-1"}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}, Middleware(svc), func(c *gin.Context) {
		c.JSON(200, gin.H{"ingested": 1})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest?dry=1", strings.NewReader(`{"k":"v"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	entries := repo.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.TenantID != "tenant-1" || e.ActorID != "u1" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.Action != "POST /api/v1/ingest" || e.Status != 200 {
		t.Fatalf("unexpected action/status: %+v", e)
	}
	if e.Metadata["query"] != "dry=1" {
		t.Fatalf("expected query metadata, got %+v", e.Metadata)
	}
	if _, ok := e.Metadata["body"]; !ok {
		t.Fatalf("expected body metadata, got %+v", e.Metadata)
	}
}

func TestMiddleware_RecordsFailureStatusToo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		p := auth.Principal{ID: "u1", Email: "a@b.c", Role: "readonly", TenantID: "t"}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}, Middleware(NewService(repo)), func(c *gin.Context) {
		c.AbortWithStatusJSON(403, gin.H{"error": "forbidden"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	entries := repo.Entries()
	if len(entries) != 1 || entries[0].Status != 403 {
		t.Fatalf("expected one 403 entry, got %+v", entries)
	}
}

type ctxCheckRepo struct {
	MemoryRepo
	appendCtxErr error
}

func (r *ctxCheckRepo) Append(ctx context.Context, e Entry) error {
	r.appendCtxErr = ctx.Err()
	return r.MemoryRepo.Append(ctx, e)
}

func TestMiddleware_RecordsAfterClientDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &ctxCheckRepo{}

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		p := auth.Principal{ID: "u1", Email: "a@b.c", Role: "admin", TenantID: "t"}
		ctx, cancel := context.WithCancel(auth.WithPrincipal(c.Request.Context(), p))
		cancel() // the client hung up mid-request
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, Middleware(NewService(repo)), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if len(repo.Entries()) != 1 {
		t.Fatalf("entry must be recorded despite the canceled request, got %d", len(repo.Entries()))
	}
	if repo.appendCtxErr != nil {
		t.Fatalf("audit write must not inherit cancellation: %v", repo.appendCtxErr)
	}
}

func TestMiddleware_SkipsWhenNoPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()

	r := gin.New()
	r.GET("/x", Middleware(NewService(repo)), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if len(repo.Entries()) != 0 {
		t.Fatalf("expected no entries without principal")
	}
}
