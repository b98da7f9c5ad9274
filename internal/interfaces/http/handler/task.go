package handler

import (
	"github.com/gin-gonic/gin"

	taskapp "github.com/crm/backend/internal/application/task"
)

// TaskHandler serves the background task endpoints
type TaskHandler struct {
	BaseHandler
	taskService *taskapp.TaskService
}

func NewTaskHandler(taskService *taskapp.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// EnqueueEmail queues an email delivery task
// POST /api/v1/tasks/email
func (h *TaskHandler) EnqueueEmail(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req taskapp.EnqueueEmailRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if actorID, err := getActorID(c); err == nil {
		req.CreatedBy = &actorID
	}

	result, err := h.taskService.EnqueueEmail(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, result)
}

// EnqueueExport queues a CSV export of contacts, deals or activities
// POST /api/v1/tasks/export
func (h *TaskHandler) EnqueueExport(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req taskapp.EnqueueExportRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if actorID, err := getActorID(c); err == nil {
		req.CreatedBy = &actorID
	}

	result, err := h.taskService.EnqueueExport(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, result)
}

// EnqueueReport queues generation of a report snapshot
// POST /api/v1/tasks/report
func (h *TaskHandler) EnqueueReport(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req taskapp.EnqueueReportRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if actorID, err := getActorID(c); err == nil {
		req.CreatedBy = &actorID
	}

	result, err := h.taskService.EnqueueReport(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, result)
}

// Get returns the full task record
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	taskID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	result, err := h.taskService.GetByID(c.Request.Context(), tenantID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Status returns the lightweight polling view of a task
// GET /api/v1/tasks/:id/status
func (h *TaskHandler) Status(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	taskID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	result, err := h.taskService.GetStatus(c.Request.Context(), tenantID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns a paginated task list
// GET /api/v1/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter taskapp.TaskListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	results, total, err := h.taskService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, results, total, filter.Page, filter.PageSize)
}

// Cancel cancels a task that has not started running
// POST /api/v1/tasks/:id/cancel
func (h *TaskHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	taskID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	result, err := h.taskService.Cancel(c.Request.Context(), tenantID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
