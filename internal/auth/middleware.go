package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	headerTenantID      = "X-Tenant-Id"
)

// ErrTenantMismatch marks a cross-tenant access attempt.
var ErrTenantMismatch = errors.New("tenant mismatch")

// RequireToken verifies the bearer credential and attaches the principal
// to the request context. It does not perform role checks; those belong
// to internal/rbac.
func RequireToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		p, err := m.Verify(tok, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// EnforceTenant rejects requests whose X-Tenant-Id header names a tenant
// other than the credential's. The credential already fixes the tenant;
// this is a guard against tenant confusion.
func EnforceTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := PrincipalFrom(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if h := strings.TrimSpace(c.GetHeader(headerTenantID)); h != "" && h != p.TenantID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrTenantMismatch.Error()})
			return
		}
		c.Next()
	}
}
