package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dealapp "github.com/crm/backend/internal/application/deal"
)

// DealHandler serves the deal pipeline endpoints
type DealHandler struct {
	BaseHandler
	dealService *dealapp.DealService
}

func NewDealHandler(dealService *dealapp.DealService) *DealHandler {
	return &DealHandler{dealService: dealService}
}

// Create opens a deal owned by the caller
// POST /api/v1/deals
func (h *DealHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dealapp.CreateDealRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.OwnerID = actorID

	result, err := h.dealService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns a single deal
// GET /api/v1/deals/:id
func (h *DealHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	dealID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid deal ID")
		return
	}

	result, err := h.dealService.GetByID(c.Request.Context(), tenantID, dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !scopeAllows(callerScope(c), result.OwnerID) {
		h.NotFound(c, "Deal not found")
		return
	}

	h.Success(c, result)
}

// List returns a paginated deal list
// GET /api/v1/deals
func (h *DealHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter dealapp.DealListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	restrictListToOwner(callerScope(c), &filter.OwnerID)

	results, total, err := h.dealService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, results, total, filter.Page, filter.PageSize)
}

// ListByContact returns the deals attached to a contact
// GET /api/v1/contacts/:id/deals
func (h *DealHandler) ListByContact(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	contactID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contact ID")
		return
	}

	var filter dealapp.DealListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	restrictListToOwner(callerScope(c), &filter.OwnerID)

	results, err := h.dealService.ListByContact(c.Request.Context(), tenantID, contactID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// Update updates an open deal's fields
// PUT /api/v1/deals/:id
func (h *DealHandler) Update(c *gin.Context) {
	tenantID, dealID, ok := h.scopedDeal(c)
	if !ok {
		return
	}

	var req dealapp.UpdateDealRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.dealService.Update(c.Request.Context(), tenantID, dealID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ChangeStage moves a deal to another open stage
// POST /api/v1/deals/:id/stage
func (h *DealHandler) ChangeStage(c *gin.Context) {
	tenantID, dealID, ok := h.scopedDeal(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dealapp.ChangeStageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.dealService.ChangeStage(c.Request.Context(), tenantID, dealID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CloseWon closes a deal as won
// POST /api/v1/deals/:id/close-won
func (h *DealHandler) CloseWon(c *gin.Context) {
	h.close(c, h.dealService.CloseWon)
}

// CloseLost closes a deal as lost
// POST /api/v1/deals/:id/close-lost
func (h *DealHandler) CloseLost(c *gin.Context) {
	h.close(c, h.dealService.CloseLost)
}

// Reopen puts a closed deal back into the pipeline
// POST /api/v1/deals/:id/reopen
func (h *DealHandler) Reopen(c *gin.Context) {
	tenantID, dealID, ok := h.scopedDeal(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dealapp.ReopenDealRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.dealService.Reopen(c.Request.Context(), tenantID, dealID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Reassign transfers ownership of a deal
// POST /api/v1/deals/:id/reassign
func (h *DealHandler) Reassign(c *gin.Context) {
	tenantID, dealID, ok := h.scopedDeal(c)
	if !ok {
		return
	}

	var req dealapp.ReassignDealRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.dealService.Reassign(c.Request.Context(), tenantID, dealID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete soft-deletes a deal
// DELETE /api/v1/deals/:id
func (h *DealHandler) Delete(c *gin.Context) {
	tenantID, dealID, ok := h.scopedDeal(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.dealService.Delete(c.Request.Context(), tenantID, dealID, actorID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Restore brings a soft-deleted deal back
// POST /api/v1/deals/:id/restore
func (h *DealHandler) Restore(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	dealID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid deal ID")
		return
	}

	result, err := h.dealService.Restore(c.Request.Context(), tenantID, dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// StageHistory returns the stage transition log of a deal
// GET /api/v1/deals/:id/history
func (h *DealHandler) StageHistory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	dealID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid deal ID")
		return
	}

	results, err := h.dealService.GetStageHistory(c.Request.Context(), tenantID, dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// PipelineSummary returns per-stage totals and the win rate
// GET /api/v1/deals/pipeline
func (h *DealHandler) PipelineSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.dealService.GetPipelineSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

type closeDealFunc func(ctx context.Context, tenantID, dealID, changedBy uuid.UUID, req dealapp.CloseDealRequest) (*dealapp.DealResponse, error)

func (h *DealHandler) close(c *gin.Context, fn closeDealFunc) {
	tenantID, dealID, ok := h.scopedDeal(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dealapp.CloseDealRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := fn(c.Request.Context(), tenantID, dealID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// scopedDeal resolves the tenant and deal from the request and checks the
// caller's data scope. A response has already been written when ok is false.
func (h *DealHandler) scopedDeal(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return tenantID, uuid.Nil, false
	}
	dealID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid deal ID")
		return tenantID, dealID, false
	}

	scope := callerScope(c)
	if !scope.CanAccessAll() {
		existing, err := h.dealService.GetByID(c.Request.Context(), tenantID, dealID)
		if err != nil {
			h.HandleError(c, err)
			return tenantID, dealID, false
		}
		if !scopeAllows(scope, existing.OwnerID) {
			h.NotFound(c, "Deal not found")
			return tenantID, dealID, false
		}
	}

	return tenantID, dealID, true
}
