// Package datascope provides row-level permission filtering for GORM queries.
//
// Roles map onto two scope levels: ALL sees every row in the tenant, SELF
// sees only rows the user owns. Filtering keys off the owner_id column that
// every scoped CRM table carries.
//
// Usage:
//
//	filter := datascope.NewFilter(role, userID)
//	scopedDB := filter.Apply(db)
//	scopedDB.Find(&contacts) // WHERE owner_id = ? is added for SELF scope
package datascope

import (
	"context"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Filter applies data scope filtering to GORM queries
type Filter struct {
	scope  identity.DataScope
	userID uuid.UUID
}

// NewFilter creates a Filter for a role and user
func NewFilter(role identity.Role, userID uuid.UUID) *Filter {
	return &Filter{
		scope:  role.Scope(),
		userID: userID,
	}
}

// NewFilterFromContext builds a Filter from the role and user ID stored on
// the request context by the auth middleware
func NewFilterFromContext(ctx context.Context, role identity.Role) *Filter {
	var userID uuid.UUID
	if s := logger.GetUserID(ctx); s != "" {
		userID, _ = uuid.Parse(s)
	}
	return NewFilter(role, userID)
}

// Apply adds the scope predicate to the query
func (f *Filter) Apply(db *gorm.DB) *gorm.DB {
	switch f.scope {
	case identity.DataScopeAll:
		return db

	case identity.DataScopeSelf:
		if f.userID == uuid.Nil {
			// No user identity available, fail closed
			return db.Where("1 = 0")
		}
		return db.Where("owner_id = ?", f.userID)

	default:
		return db.Where("1 = 0")
	}
}

// Scope returns a GORM scope function for use with db.Scopes
func (f *Filter) Scope() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return f.Apply(db)
	}
}

// CanAccessAll reports whether the filter sees every tenant row
func (f *Filter) CanAccessAll() bool {
	return f.scope == identity.DataScopeAll
}

// IsOwner checks if the filter user owns a record
func (f *Filter) IsOwner(ownerID uuid.UUID) bool {
	return f.userID != uuid.Nil && f.userID == ownerID
}

// UserID returns the filter's user ID
func (f *Filter) UserID() uuid.UUID {
	return f.userID
}
