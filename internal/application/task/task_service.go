package task

import (
	"context"
	"encoding/json"

	"github.com/crm/backend/internal/domain/report"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/task"
	"github.com/crm/backend/internal/infrastructure/worker"
	"github.com/google/uuid"
)

const defaultMaxRetries = 3

// TaskService enqueues background tasks and answers status polls.
// Status reads prefer the cache and fall back to the database row.
type TaskService struct {
	taskRepo task.TaskRepository
	status   task.StatusStore
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo task.TaskRepository, status task.StatusStore) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		status:   status,
	}
}

// EnqueueEmail schedules an email task
func (s *TaskService) EnqueueEmail(ctx context.Context, tenantID uuid.UUID, req EnqueueEmailRequest) (*TaskResponse, error) {
	payload := worker.EmailPayload{
		Kind:            req.Kind,
		To:              req.To,
		Name:            req.Name,
		DealTitle:       req.DealTitle,
		Amount:          req.Amount,
		Currency:        req.Currency,
		ActivitySubject: req.ActivitySubject,
		DueDate:         req.DueDate,
	}
	return s.enqueue(ctx, tenantID, req.CreatedBy, task.TaskTypeEmail, payload)
}

// EnqueueExport schedules an export task
func (s *TaskService) EnqueueExport(ctx context.Context, tenantID uuid.UUID, req EnqueueExportRequest) (*TaskResponse, error) {
	payload := worker.ExportPayload{Resource: req.Resource}
	return s.enqueue(ctx, tenantID, req.CreatedBy, task.TaskTypeExport, payload)
}

// EnqueueReport schedules a report snapshot task
func (s *TaskService) EnqueueReport(ctx context.Context, tenantID uuid.UUID, req EnqueueReportRequest) (*TaskResponse, error) {
	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end must be after period start")
	}

	payload := worker.ReportPayload{
		Kind:        report.SnapshotKind(req.Kind),
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	}
	return s.enqueue(ctx, tenantID, req.CreatedBy, task.TaskTypeReport, payload)
}

func (s *TaskService) enqueue(ctx context.Context, tenantID uuid.UUID, createdBy *uuid.UUID, taskType task.TaskType, payload interface{}) (*TaskResponse, error) {
	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PAYLOAD", "Failed to encode task payload")
	}

	t, err := task.NewTask(tenantID, createdBy, taskType, string(blob), defaultMaxRetries)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	// Cache miss on the first poll is harmless, the row is authoritative
	_ = s.status.Put(ctx, t)

	response := ToTaskResponse(t)
	return &response, nil
}

// GetByID retrieves the full task row
func (s *TaskService) GetByID(ctx context.Context, tenantID, taskID uuid.UUID) (*TaskResponse, error) {
	t, err := s.taskRepo.FindByID(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}

	response := ToTaskResponse(t)
	return &response, nil
}

// GetStatus answers a status poll, cache first
func (s *TaskService) GetStatus(ctx context.Context, tenantID, taskID uuid.UUID) (*TaskStatusResponse, error) {
	// The snapshot is only served to the tenant that owns the task; any
	// mismatch falls through to the tenant-scoped row lookup.
	if snapshot, err := s.status.Get(ctx, taskID); err == nil && snapshot != nil && snapshot.TenantID == tenantID {
		response := ToTaskStatusResponse(snapshot)
		return &response, nil
	}

	t, err := s.taskRepo.FindByID(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}

	response := ToTaskStatusResponse(task.SnapshotOf(t))
	return &response, nil
}

// List retrieves tasks with filtering and pagination
func (s *TaskService) List(ctx context.Context, tenantID uuid.UUID, filter TaskListFilter) ([]TaskResponse, int64, error) {
	domainFilter := buildTaskFilter(filter)

	tasks, err := s.taskRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.taskRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TaskResponse, len(tasks))
	for i := range tasks {
		responses[i] = ToTaskResponse(&tasks[i])
	}

	return responses, total, nil
}

// Cancel aborts a pending task
func (s *TaskService) Cancel(ctx context.Context, tenantID, taskID uuid.UUID) (*TaskResponse, error) {
	t, err := s.taskRepo.FindByID(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}

	if err := t.Cancel(); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	_ = s.status.Put(ctx, t)

	response := ToTaskResponse(t)
	return &response, nil
}

func buildTaskFilter(filter TaskListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}

	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	return domainFilter
}
