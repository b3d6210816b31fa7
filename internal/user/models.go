package user

import "time"

// User is a tenant-scoped account able to obtain credentials.
// PasswordHash is a bcrypt hash; plaintext never leaves the login handler.
type User struct {
	ID           string    `json:"id" db:"id"`
	TenantID     string    `json:"tenantId" db:"tenant_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
