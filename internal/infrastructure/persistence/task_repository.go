package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/task"
)

// GormTaskRepository implements TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByID finds a task by ID within a tenant
func (r *GormTaskRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*task.Task, error) {
	var t task.Task
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAllForTenant lists tasks for a tenant
func (r *GormTaskRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]task.Task, error) {
	var tasks []task.Task
	query := r.db.WithContext(ctx).
		Model(&task.Task{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindRunnable finds pending or due-for-retry tasks across tenants. The
// worker engine claims tasks from this list, so the query deliberately
// carries no tenant clause.
func (r *GormTaskRepository) FindRunnable(ctx context.Context, limit int) ([]task.Task, error) {
	var tasks []task.Task
	if err := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND scheduled_at <= ?)",
			task.TaskStatusPending, task.TaskStatusRetrying, time.Now()).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save creates or updates a task
func (r *GormTaskRepository) Save(ctx context.Context, t *task.Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// UpdateProgress persists only status, progress and error so that a
// concurrent full save cannot be clobbered by a progress tick
func (r *GormTaskRepository) UpdateProgress(ctx context.Context, t *task.Task) error {
	return r.db.WithContext(ctx).
		Model(&task.Task{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"status":     t.Status,
			"progress":   t.Progress,
			"error":      t.Error,
			"updated_at": time.Now(),
		}).Error
}

// CountForTenant counts tasks for a tenant
func (r *GormTaskRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&task.Task{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyConditions(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyConditions applies filter conditions without pagination or ordering
func (r *GormTaskRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if taskType, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", taskType)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// applyFilter applies filter conditions, pagination and sorting
func (r *GormTaskRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, TaskSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// Ensure GormTaskRepository implements TaskRepository
var _ task.TaskRepository = (*GormTaskRepository)(nil)
