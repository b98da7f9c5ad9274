package identity

// Role is a fixed role assigned to a user. Roles decide both endpoint
// access and which tenant rows a user can see.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSales   Role = "sales"
	RoleSupport Role = "support"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSales, RoleSupport:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// DataScope controls which tenant rows a role may read
type DataScope string

const (
	// DataScopeAll grants access to every row in the tenant
	DataScopeAll DataScope = "all"
	// DataScopeSelf restricts access to rows owned by the user
	DataScopeSelf DataScope = "self"
)

// Scope returns the data scope for the role. Admins and managers see
// everything in the tenant, sales reps see only rows they own, support
// sees everything but is read-only.
func (r Role) Scope() DataScope {
	if r == RoleSales {
		return DataScopeSelf
	}
	return DataScopeAll
}

// CanWrite reports whether the role may call mutating endpoints
func (r Role) CanWrite() bool {
	return r != RoleSupport
}

// CanManageUsers reports whether the role may administer users and API keys
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}
