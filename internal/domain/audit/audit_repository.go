package audit

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for audit log persistence
type Repository interface {
	// Save appends an audit entry
	Save(ctx context.Context, entry *Entry) error

	// FindByID finds an entry by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Entry, error)

	// FindAllForTenant lists entries for a tenant; filter supports
	// action, resource_type, resource_id and actor_id keys
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Entry, error)

	// FindByResource lists entries for one resource, newest first
	FindByResource(ctx context.Context, tenantID uuid.UUID, resourceType string, resourceID uuid.UUID, filter shared.Filter) ([]Entry, error)

	// CountForTenant counts entries for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// PurgeOlderThan deletes entries created before the cutoff.
	// Returns the number of rows removed.
	PurgeOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error)
}
