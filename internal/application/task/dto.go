package task

import (
	"time"

	"github.com/crm/backend/internal/domain/task"
	"github.com/google/uuid"
)

// EnqueueEmailRequest represents a request to enqueue an email task
type EnqueueEmailRequest struct {
	Kind            string     `json:"kind" binding:"required,oneof=welcome deal_won activity_due"`
	To              string     `json:"to" binding:"required,email"`
	Name            string     `json:"name" binding:"omitempty,max=200"`
	DealTitle       string     `json:"deal_title" binding:"omitempty,max=200"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency" binding:"omitempty,len=3"`
	ActivitySubject string     `json:"activity_subject" binding:"omitempty,max=200"`
	DueDate         string     `json:"due_date"`
	CreatedBy       *uuid.UUID `json:"-"`
}

// EnqueueExportRequest represents a request to enqueue an export task
type EnqueueExportRequest struct {
	Resource  string     `json:"resource" binding:"required,oneof=contacts deals activities"`
	CreatedBy *uuid.UUID `json:"-"`
}

// EnqueueReportRequest represents a request to enqueue a report task
type EnqueueReportRequest struct {
	Kind        string     `json:"kind" binding:"required,oneof=pipeline activity"`
	PeriodStart time.Time  `json:"period_start" binding:"required"`
	PeriodEnd   time.Time  `json:"period_end" binding:"required"`
	CreatedBy   *uuid.UUID `json:"-"`
}

// TaskResponse represents a background task in responses
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Attempts    int        `json:"attempts"`
	MaxRetries  int        `json:"max_retries"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TaskStatusResponse is the lightweight polling view of a task
type TaskStatusResponse struct {
	TaskID   uuid.UUID `json:"task_id"`
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	Progress int       `json:"progress"`
	Error    string    `json:"error,omitempty"`
	Result   string    `json:"result,omitempty"`
}

// TaskListFilter represents filter options for task list
type TaskListFilter struct {
	Type     string `form:"type" binding:"omitempty,oneof=email export report"`
	Status   string `form:"status" binding:"omitempty,oneof=pending running retrying succeeded failed cancelled"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToTaskResponse converts a domain Task to TaskResponse
func ToTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		TenantID:    t.TenantID,
		CreatedBy:   t.CreatedBy,
		Type:        string(t.Type),
		Status:      string(t.Status),
		Progress:    t.Progress,
		Attempts:    t.Attempts,
		MaxRetries:  t.MaxRetries,
		Result:      t.Result,
		Error:       t.Error,
		ScheduledAt: t.ScheduledAt,
		StartedAt:   t.StartedAt,
		FinishedAt:  t.FinishedAt,
		CreatedAt:   t.CreatedAt,
	}
}

// ToTaskStatusResponse converts a cached snapshot to TaskStatusResponse
func ToTaskStatusResponse(s *task.StatusSnapshot) TaskStatusResponse {
	return TaskStatusResponse{
		TaskID:   s.TaskID,
		Type:     string(s.Type),
		Status:   string(s.Status),
		Progress: s.Progress,
		Error:    s.Error,
		Result:   s.Result,
	}
}
