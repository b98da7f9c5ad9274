package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	monitoringapp "github.com/crm/backend/internal/application/monitoring"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves health checks and the monitoring endpoints
type SystemHandler struct {
	BaseHandler
	monitoringService *monitoringapp.MonitoringService
	db                Pinger
	version           string
	startedAt         time.Time
}

func NewSystemHandler(monitoringService *monitoringapp.MonitoringService, db Pinger, version string) *SystemHandler {
	return &SystemHandler{
		monitoringService: monitoringService,
		db:                db,
		version:           version,
		startedAt:         time.Now(),
	}
}

// Health reports process liveness and database reachability
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":   status,
		"version":  h.version,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
		"database": dbStatus,
	})
}

// SystemStatus returns the latest resource usage sample
// GET /api/v1/monitoring/system
func (h *SystemHandler) SystemStatus(c *gin.Context) {
	result, err := h.monitoringService.SystemStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CreateAlertRule creates an alert rule
// POST /api/v1/monitoring/alert-rules
func (h *SystemHandler) CreateAlertRule(c *gin.Context) {
	var req monitoringapp.CreateAlertRuleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.monitoringService.CreateRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetAlertRule returns a single alert rule
// GET /api/v1/monitoring/alert-rules/:id
func (h *SystemHandler) GetAlertRule(c *gin.Context) {
	ruleID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid alert rule ID")
		return
	}

	result, err := h.monitoringService.GetRule(c.Request.Context(), ruleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListAlertRules returns every alert rule
// GET /api/v1/monitoring/alert-rules
func (h *SystemHandler) ListAlertRules(c *gin.Context) {
	results, err := h.monitoringService.ListRules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// UpdateAlertRule updates an alert rule
// PUT /api/v1/monitoring/alert-rules/:id
func (h *SystemHandler) UpdateAlertRule(c *gin.Context) {
	ruleID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid alert rule ID")
		return
	}

	var req monitoringapp.UpdateAlertRuleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.monitoringService.UpdateRule(c.Request.Context(), ruleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// DeleteAlertRule removes an alert rule
// DELETE /api/v1/monitoring/alert-rules/:id
func (h *SystemHandler) DeleteAlertRule(c *gin.Context) {
	ruleID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid alert rule ID")
		return
	}

	if err := h.monitoringService.DeleteRule(c.Request.Context(), ruleID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListAlerts returns raised alerts, optionally filtered by resolution state
// GET /api/v1/monitoring/alerts
func (h *SystemHandler) ListAlerts(c *gin.Context) {
	var filter monitoringapp.AlertListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	results, total, err := h.monitoringService.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, results, total, filter.Page, filter.PageSize)
}

// ResolveAlert marks an alert as handled
// POST /api/v1/monitoring/alerts/:id/resolve
func (h *SystemHandler) ResolveAlert(c *gin.Context) {
	alertID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid alert ID")
		return
	}

	result, err := h.monitoringService.ResolveAlert(c.Request.Context(), alertID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
