package task

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TaskRepository defines the interface for task persistence
type TaskRepository interface {
	// FindByID finds a task by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Task, error)

	// FindAllForTenant lists tasks for a tenant; filter supports
	// type and status keys
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Task, error)

	// FindRunnable finds pending or due-for-retry tasks across tenants,
	// oldest scheduled first
	FindRunnable(ctx context.Context, limit int) ([]Task, error)

	// Save creates or updates a task
	Save(ctx context.Context, task *Task) error

	// UpdateProgress persists only status, progress and error
	UpdateProgress(ctx context.Context, task *Task) error

	// CountForTenant counts tasks for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// StatusStore mirrors task status into a fast cache for polling.
// Implementations are best-effort; the database row is authoritative.
type StatusStore interface {
	// Put stores the status snapshot for a task
	Put(ctx context.Context, task *Task) error

	// Get returns the cached snapshot, or nil when missing
	Get(ctx context.Context, taskID uuid.UUID) (*StatusSnapshot, error)

	// Delete drops the cached snapshot
	Delete(ctx context.Context, taskID uuid.UUID) error
}

// StatusSnapshot is the cached view of a task's progress. It carries the
// owning tenant so that cache reads can be tenant-checked like database reads.
type StatusSnapshot struct {
	TaskID   uuid.UUID  `json:"task_id"`
	TenantID uuid.UUID  `json:"tenant_id"`
	Type     TaskType   `json:"type"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
	Error    string     `json:"error,omitempty"`
	Result   string     `json:"result,omitempty"`
}

// SnapshotOf builds a snapshot from a task
func SnapshotOf(t *Task) *StatusSnapshot {
	return &StatusSnapshot{
		TaskID:   t.ID,
		TenantID: t.TenantID,
		Type:     t.Type,
		Status:   t.Status,
		Progress: t.Progress,
		Error:    t.Error,
		Result:   t.Result,
	}
}
