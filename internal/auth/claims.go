package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Tenant invariant: TenantID is fixed at issuance and immutable for the
// credential's lifetime; no request may act under a different tenant.
type Claims struct {
	jwt.RegisteredClaims

	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenantId"`
}

// Principal is the authenticated identity derived from a verified credential.
// It is never persisted; it is reconstructed per request.
type Principal struct {
	ID       string
	Email    string
	Role     string
	TenantID string
}
