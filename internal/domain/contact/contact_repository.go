package contact

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactRepository defines the interface for contact persistence
type ContactRepository interface {
	// FindByID finds a contact by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Contact, error)

	// FindByIDForTenant finds a contact by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error)

	// FindByEmail finds a contact by email within a tenant (deleted excluded)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Contact, error)

	// FindAllForTenant finds all contacts for a tenant, deleted excluded
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contact, error)

	// FindByStatus finds contacts by lifecycle status for a tenant
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status ContactStatus, filter shared.Filter) ([]Contact, error)

	// FindDeleted finds soft-deleted contacts for a tenant
	FindDeleted(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contact, error)

	// FindByIDs finds multiple contacts by their IDs
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Contact, error)

	// Save creates or updates a contact
	Save(ctx context.Context, contact *Contact) error

	// SaveWithLock saves a contact with optimistic locking (version check)
	SaveWithLock(ctx context.Context, contact *Contact) error

	// CountForTenant counts contacts for a tenant, deleted excluded
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus returns contact counts grouped by lifecycle status
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[ContactStatus]int64, error)

	// ExistsByEmail checks if a live contact with the given email exists in the tenant
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}
