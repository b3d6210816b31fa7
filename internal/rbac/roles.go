package rbac

// Role names. Keep these stable; they are part of the credential contract.
const (
	RoleAdmin    = "admin"
	RoleAnalyst  = "analyst"
	RoleAuditor  = "auditor"
	RoleReadonly = "readonly"
)

// Writers are the roles allowed to ingest events and create rules/queries.
func Writers() []string {
	return []string{RoleAdmin, RoleAnalyst}
}

// Readers are the roles allowed on read-only tenant data.
func Readers() []string {
	return []string{RoleAdmin, RoleAnalyst, RoleAuditor, RoleReadonly}
}
