package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func guardedRouter(t *testing.T, m *Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireToken(m), EnforceTenant(), func(c *gin.Context) {
		p, err := PrincipalFrom(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(500, gin.H{"error": "no principal"})
			return
		}
		c.JSON(200, gin.H{"tenant": p.TenantID})
	})
	return r
}

func TestRequireToken_MissingBearer(t *testing.T) {
	r := guardedRouter(t, testManager(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireToken_InvalidToken(t *testing.T) {
	r := guardedRouter(t, testManager(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestEnforceTenant_HeaderMismatchRejected(t *testing.T) {
	m := testManager(t)
	r := guardedRouter(t, m)

	tok, err := m.Issue(time.Now(), Principal{ID: "u", Email: "a@b.c", Role: "admin", TenantID: "tenant-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-Tenant-Id", "tenant-2")
	r.ServeHTTP(w, req)
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestEnforceTenant_MatchingHeaderAllowed(t *testing.T) {
	m := testManager(t)
	r := guardedRouter(t, m)

	tok, err := m.Issue(time.Now(), Principal{ID: "u", Email: "a@b.c", Role: "admin", TenantID: "tenant-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-Tenant-Id", "tenant-1")
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
