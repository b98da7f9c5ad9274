package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	auditapp "github.com/crm/backend/internal/application/audit"
)

// AuditHandler serves the audit log endpoints. The router restricts every
// route here to the admin role.
type AuditHandler struct {
	BaseHandler
	auditService *auditapp.AuditService
}

func NewAuditHandler(auditService *auditapp.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List returns a paginated audit trail
// GET /api/v1/audit-logs
func (h *AuditHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter auditapp.EntryListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	results, total, err := h.auditService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, results, total, filter.Page, filter.PageSize)
}

// Get returns a single audit entry
// GET /api/v1/audit-logs/:id
func (h *AuditHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	entryID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid audit entry ID")
		return
	}

	result, err := h.auditService.GetByID(c.Request.Context(), tenantID, entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListByResource returns the audit trail of one resource
// GET /api/v1/audit-logs/resource/:type/:id
func (h *AuditHandler) ListByResource(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	resourceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid resource ID")
		return
	}
	resourceType := c.Param("type")
	if resourceType == "" {
		h.BadRequest(c, "Missing resource type")
		return
	}

	var filter auditapp.EntryListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	results, err := h.auditService.ListByResource(c.Request.Context(), tenantID, resourceType, resourceID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// Purge removes entries older than the requested retention window
// POST /api/v1/audit-logs/purge
func (h *AuditHandler) Purge(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req struct {
		RetentionDays int `json:"retention_days" binding:"required,min=1,max=3650"`
	}
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.auditService.Purge(c.Request.Context(), tenantID, time.Duration(req.RetentionDays)*24*time.Hour)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
