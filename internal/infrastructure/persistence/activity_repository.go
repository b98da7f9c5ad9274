package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/activity"
	"github.com/crm/backend/internal/domain/shared"
)

// openStatuses are activity statuses that still demand attention
var openStatuses = []activity.ActivityStatus{
	activity.ActivityStatusPending,
	activity.ActivityStatusInProgress,
}

// GormActivityRepository implements ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&activity.Activity{}).Where("deleted_at IS NULL")
}

// FindByID finds an activity by its ID
func (r *GormActivityRepository) FindByID(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	var a activity.Activity
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByIDForTenant finds an activity by ID within a tenant
func (r *GormActivityRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*activity.Activity, error) {
	var a activity.Activity
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindAllForTenant finds all live activities for a tenant
func (r *GormActivityRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]activity.Activity, error) {
	var activities []activity.Activity
	query := r.applyFilter(r.live(ctx).Where("tenant_id = ?", tenantID), filter)
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// FindByContact finds live activities referencing a contact
func (r *GormActivityRepository) FindByContact(ctx context.Context, tenantID, contactID uuid.UUID, filter shared.Filter) ([]activity.Activity, error) {
	var activities []activity.Activity
	query := r.applyFilter(
		r.live(ctx).Where("tenant_id = ? AND contact_id = ?", tenantID, contactID),
		filter,
	)
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// FindByDeal finds live activities referencing a deal
func (r *GormActivityRepository) FindByDeal(ctx context.Context, tenantID, dealID uuid.UUID, filter shared.Filter) ([]activity.Activity, error) {
	var activities []activity.Activity
	query := r.applyFilter(
		r.live(ctx).Where("tenant_id = ? AND deal_id = ?", tenantID, dealID),
		filter,
	)
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// FindByOwner finds live activities owned by a user
func (r *GormActivityRepository) FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID, filter shared.Filter) ([]activity.Activity, error) {
	var activities []activity.Activity
	query := r.applyFilter(
		r.live(ctx).Where("tenant_id = ? AND owner_id = ?", tenantID, ownerID),
		filter,
	)
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// FindOverdue finds open activities whose due date is before the cutoff
func (r *GormActivityRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, filter shared.Filter) ([]activity.Activity, error) {
	var activities []activity.Activity
	query := r.applyFilter(
		r.live(ctx).
			Where("tenant_id = ? AND status IN ? AND due_date IS NOT NULL AND due_date < ?", tenantID, openStatuses, cutoff),
		filter,
	)
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// FindDueBetween finds open activities due within the window
func (r *GormActivityRepository) FindDueBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]activity.Activity, error) {
	var activities []activity.Activity
	if err := r.live(ctx).
		Where("tenant_id = ? AND status IN ? AND due_date >= ? AND due_date < ?", tenantID, openStatuses, from, to).
		Order("due_date ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// Save creates or updates an activity
func (r *GormActivityRepository) Save(ctx context.Context, a *activity.Activity) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// SaveWithLock saves an activity with optimistic locking (version check)
func (r *GormActivityRepository) SaveWithLock(ctx context.Context, a *activity.Activity) error {
	result := r.db.WithContext(ctx).
		Model(&activity.Activity{}).
		Where("id = ? AND version = ?", a.ID, a.Version-1).
		Select("*").
		Updates(a)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts live activities for a tenant
func (r *GormActivityRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.live(ctx).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns live activity counts grouped by status
func (r *GormActivityRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[activity.ActivityStatus]int64, error) {
	var rows []struct {
		Status activity.ActivityStatus
		Count  int64
	}
	if err := r.live(ctx).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[activity.ActivityStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SaveComment appends a comment to an activity
func (r *GormActivityRepository) SaveComment(ctx context.Context, comment *activity.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

// FindComments lists comments for an activity, oldest first
func (r *GormActivityRepository) FindComments(ctx context.Context, tenantID, activityID uuid.UUID) ([]activity.Comment, error) {
	var comments []activity.Comment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND activity_id = ?", tenantID, activityID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteComment removes a comment
func (r *GormActivityRepository) DeleteComment(ctx context.Context, tenantID, commentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&activity.Comment{}, "tenant_id = ? AND id = ?", tenantID, commentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormActivityRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ActivitySortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormActivityRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("subject ILIKE ? OR description ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "priority":
			query = query.Where("priority = ?", value)
		case "owner_id":
			query = query.Where("owner_id = ?", value)
		case "open":
			if value == true {
				query = query.Where("status IN ?", openStatuses)
			}
		case "created_from":
			query = query.Where("created_at >= ?", value)
		case "created_to":
			query = query.Where("created_at < ?", value)
		case "completed_from":
			query = query.Where("completed_at >= ?", value)
		case "completed_to":
			query = query.Where("completed_at < ?", value)
		case "overdue_before":
			query = query.Where("status IN ? AND due_date IS NOT NULL AND due_date < ?", openStatuses, value)
		}
	}

	return query
}

// Ensure GormActivityRepository implements ActivityRepository
var _ activity.ActivityRepository = (*GormActivityRepository)(nil)
