package activity

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ActivityRepository defines the interface for activity persistence
type ActivityRepository interface {
	// FindByID finds an activity by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Activity, error)

	// FindByIDForTenant finds an activity by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Activity, error)

	// FindAllForTenant finds all activities for a tenant, deleted excluded
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Activity, error)

	// FindByContact finds activities referencing a contact
	FindByContact(ctx context.Context, tenantID, contactID uuid.UUID, filter shared.Filter) ([]Activity, error)

	// FindByDeal finds activities referencing a deal
	FindByDeal(ctx context.Context, tenantID, dealID uuid.UUID, filter shared.Filter) ([]Activity, error)

	// FindByOwner finds activities owned by a user
	FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID, filter shared.Filter) ([]Activity, error)

	// FindOverdue finds open activities whose due date is before the cutoff
	FindOverdue(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, filter shared.Filter) ([]Activity, error)

	// FindDueBetween finds open activities due within the window
	FindDueBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Activity, error)

	// Save creates or updates an activity
	Save(ctx context.Context, activity *Activity) error

	// SaveWithLock saves an activity with optimistic locking (version check)
	SaveWithLock(ctx context.Context, activity *Activity) error

	// CountForTenant counts activities for a tenant, deleted excluded
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus returns activity counts grouped by status
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[ActivityStatus]int64, error)

	// SaveComment appends a comment to an activity
	SaveComment(ctx context.Context, comment *Comment) error

	// FindComments lists comments for an activity, oldest first
	FindComments(ctx context.Context, tenantID, activityID uuid.UUID) ([]Comment, error)

	// DeleteComment removes a comment
	DeleteComment(ctx context.Context, tenantID, commentID uuid.UUID) error
}
