package identity

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByIDForTenant finds a user by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*User, error)

	// FindByUsername finds a user by username within a tenant
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*User, error)

	// FindByEmail finds a user by email within a tenant
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)

	// FindAllForTenant finds all users for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, error)

	// FindByIDs finds multiple users by their IDs
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]User, error)

	// FindByRole finds users holding a role within a tenant
	FindByRole(ctx context.Context, tenantID uuid.UUID, role Role, filter shared.Filter) ([]User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error

	// Delete removes a user
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts users for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByUsername checks if a user with the username exists in the tenant
	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)

	// ExistsByEmail checks if a user with the email exists in the tenant
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}

// APIKeyRepository defines the interface for API key persistence
type APIKeyRepository interface {
	// FindByID finds an API key by its ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*APIKey, error)

	// FindByPrefix finds candidate keys by plaintext prefix across tenants.
	// Authentication happens before the tenant is known.
	FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error)

	// FindAllForTenant lists keys for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]APIKey, error)

	// FindByOwner lists keys owned by a user
	FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) ([]APIKey, error)

	// Save creates or updates an API key
	Save(ctx context.Context, key *APIKey) error

	// Delete removes an API key
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// TouchLastUsed updates only the last-used timestamp
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}
