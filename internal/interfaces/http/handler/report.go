package handler

import (
	"github.com/gin-gonic/gin"

	reportapp "github.com/crm/backend/internal/application/report"
	taskapp "github.com/crm/backend/internal/application/task"
)

// ReportHandler serves stored report snapshots. Generation happens in the
// background through the task queue, reads come from here.
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
	taskService   *taskapp.TaskService
}

func NewReportHandler(reportService *reportapp.ReportService, taskService *taskapp.TaskService) *ReportHandler {
	return &ReportHandler{reportService: reportService, taskService: taskService}
}

// Get returns the snapshot for a kind and period start
// GET /api/v1/reports
func (h *ReportHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query reportapp.SnapshotQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.reportService.Get(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetLatest returns the most recent snapshot of a kind
// GET /api/v1/reports/latest/:kind
func (h *ReportHandler) GetLatest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	kind := c.Param("kind")
	if kind != "pipeline" && kind != "activity" {
		h.BadRequest(c, "Unknown report kind")
		return
	}

	result, err := h.reportService.GetLatest(c.Request.Context(), tenantID, kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Regenerate queues a fresh snapshot for a kind and period
// POST /api/v1/reports/regenerate
func (h *ReportHandler) Regenerate(c *gin.Context) {
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
