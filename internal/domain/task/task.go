package task

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TaskType identifies the executor responsible for a task
type TaskType string

const (
	TaskTypeEmail  TaskType = "email"
	TaskTypeExport TaskType = "export"
	TaskTypeReport TaskType = "report"
)

// IsValid checks if the type is a known TaskType
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeEmail, TaskTypeExport, TaskTypeReport:
		return true
	}
	return false
}

// TaskStatus represents the status of a background task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusRetrying  TaskStatus = "retrying"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the task will run no further
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed || s == TaskStatusCancelled
}

// Task is a durable background job. Payload and Result are JSON blobs
// interpreted by the executor for the task type.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	Type        TaskType   `gorm:"type:varchar(20);not null;index"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Payload     string     `gorm:"type:jsonb;not null;default:'{}'"`
	Result      string     `gorm:"type:jsonb"`
	Progress    int        `gorm:"not null;default:0"`
	Attempts    int        `gorm:"not null;default:0"`
	MaxRetries  int        `gorm:"not null;default:3"`
	Error       string     `gorm:"type:text"`
	ScheduledAt time.Time  `gorm:"not null;index"`
	StartedAt   *time.Time
	FinishedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (Task) TableName() string {
	return "tasks"
}

// NewTask creates a pending task
func NewTask(tenantID uuid.UUID, createdBy *uuid.UUID, taskType TaskType, payload string, maxRetries int) (*Task, error) {
	if !taskType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TASK_TYPE", "Unknown task type")
	}
	if payload == "" {
		payload = "{}"
	}
	if maxRetries < 0 {
		return nil, shared.NewDomainError("INVALID_RETRIES", "Max retries cannot be negative")
	}

	now := time.Now()
	return &Task{
		ID:          uuid.New(),
		TenantID:    tenantID,
		CreatedBy:   createdBy,
		Type:        taskType,
		Status:      TaskStatusPending,
		Payload:     payload,
		MaxRetries:  maxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Start marks the task as running
func (t *Task) Start() error {
	if t.Status != TaskStatusPending && t.Status != TaskStatusRetrying {
		return shared.NewDomainError("INVALID_STATE", "Task is not runnable")
	}

	now := time.Now()
	t.Status = TaskStatusRunning
	t.Attempts++
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Error = ""

	return nil
}

// Succeed marks the task finished and stores the result blob
func (t *Task) Succeed(result string) {
	now := time.Now()
	t.Status = TaskStatusSucceeded
	t.Progress = 100
	t.Result = result
	t.FinishedAt = &now
	t.UpdatedAt = now
}

// Fail records an attempt failure. When retries remain the task moves to
// retrying with the next run time; otherwise it fails terminally.
func (t *Task) Fail(errMsg string, retryDelay time.Duration) {
	now := time.Now()
	t.Error = errMsg
	t.UpdatedAt = now

	if t.Attempts <= t.MaxRetries {
		t.Status = TaskStatusRetrying
		t.ScheduledAt = now.Add(retryDelay)
		return
	}

	t.Status = TaskStatusFailed
	t.FinishedAt = &now
}

// Cancel aborts a task that has not started
func (t *Task) Cancel() error {
	if t.Status != TaskStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only a pending task can be cancelled")
	}

	now := time.Now()
	t.Status = TaskStatusCancelled
	t.FinishedAt = &now
	t.UpdatedAt = now

	return nil
}

// SetProgress updates completion percentage
func (t *Task) SetProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return shared.NewDomainError("INVALID_PROGRESS", "Progress must be between 0 and 100")
	}

	t.Progress = progress
	t.UpdatedAt = time.Now()

	return nil
}

// RetryDelay returns the backoff before the given attempt: the base delay
// doubled per prior attempt, capped at max.
func RetryDelay(base, max time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
