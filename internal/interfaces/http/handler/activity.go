package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	activityapp "github.com/crm/backend/internal/application/activity"
)

// ActivityHandler serves the activity and comment endpoints
type ActivityHandler struct {
	BaseHandler
	activityService *activityapp.ActivityService
}

func NewActivityHandler(activityService *activityapp.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// Create creates an activity owned by the caller
// POST /api/v1/activities
func (h *ActivityHandler) Create(c *gin.Context) {
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

	var req activityapp.CreateActivityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.OwnerID = actorID

	result, err := h.activityService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns a single activity
// GET /api/v1/activities/:id
func (h *ActivityHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	activityID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid activity ID")
		return
	}

	result, err := h.activityService.GetByID(c.Request.Context(), tenantID, activityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !scopeAllows(callerScope(c), result.OwnerID) {
		h.NotFound(c, "Activity not found")
		return
	}

	h.Success(c, result)
}

// List returns a paginated activity list
// GET /api/v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter activityapp.ActivityListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	restrictListToOwner(callerScope(c), &filter.OwnerID)

	results, total, err := h.activityService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, results, total, filter.Page, filter.PageSize)
}

// ListOverdue returns activities past their due date
// GET /api/v1/activities/overdue
func (h *ActivityHandler) ListOverdue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter activityapp.ActivityListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	restrictListToOwner(callerScope(c), &filter.OwnerID)

	results, err := h.activityService.ListOverdue(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// CountByStatus returns activity counts per status
// GET /api/v1/activities/stats
func (h *ActivityHandler) CountByStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	results, err := h.activityService.CountByStatus(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// Update updates an activity's fields
// PUT /api/v1/activities/:id
func (h *ActivityHandler) Update(c *gin.Context) {
	tenantID, activityID, ok := h.scopedActivity(c)
	if !ok {
		return
	}

	var req activityapp.UpdateActivityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.activityService.Update(c.Request.Context(), tenantID, activityID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Start marks an activity as in progress
// POST /api/v1/activities/:id/start
func (h *ActivityHandler) Start(c *gin.Context) {
	h.transition(c, h.activityService.Start)
}

// Complete marks an activity as completed
// POST /api/v1/activities/:id/complete
func (h *ActivityHandler) Complete(c *gin.Context) {
	h.transition(c, h.activityService.Complete)
}

// Cancel marks an activity as cancelled
// POST /api/v1/activities/:id/cancel
func (h *ActivityHandler) Cancel(c *gin.Context) {
	h.transition(c, h.activityService.Cancel)
}

// Reassign transfers ownership of an activity
// POST /api/v1/activities/:id/reassign
func (h *ActivityHandler) Reassign(c *gin.Context) {
	tenantID, activityID, ok := h.scopedActivity(c)
	if !ok {
		return
	}

	var req activityapp.ReassignActivityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.activityService.Reassign(c.Request.Context(), tenantID, activityID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete soft-deletes an activity
// DELETE /api/v1/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	tenantID, activityID, ok := h.scopedActivity(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.activityService.Delete(c.Request.Context(), tenantID, activityID, actorID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AddComment adds a comment authored by the caller
// POST /api/v1/activities/:id/comments
func (h *ActivityHandler) AddComment(c *gin.Context) {
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
	activityID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid activity ID")
		return
	}

	var req activityapp.AddCommentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.AuthorID = actorID

	result, err := h.activityService.AddComment(c.Request.Context(), tenantID, activityID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListComments returns an activity's comments, oldest first
// GET /api/v1/activities/:id/comments
func (h *ActivityHandler) ListComments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	activityID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid activity ID")
		return
	}

	results, err := h.activityService.ListComments(c.Request.Context(), tenantID, activityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// DeleteComment removes a comment
// DELETE /api/v1/activities/comments/:commentId
func (h *ActivityHandler) DeleteComment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	commentID, err := parseUUIDParam(c, "commentId")
	if err != nil {
		h.BadRequest(c, "Invalid comment ID")
		return
	}

	if err := h.activityService.DeleteComment(c.Request.Context(), tenantID, commentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

type activityTransitionFunc func(ctx context.Context, tenantID, activityID uuid.UUID) (*activityapp.ActivityResponse, error)

func (h *ActivityHandler) transition(c *gin.Context, fn activityTransitionFunc) {
	tenantID, activityID, ok := h.scopedActivity(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), tenantID, activityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// scopedActivity resolves the tenant and activity from the request and
// checks the caller's data scope. A response has already been written when
// ok is false.
func (h *ActivityHandler) scopedActivity(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return tenantID, uuid.Nil, false
	}
	activityID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid activity ID")
		return tenantID, activityID, false
	}

	scope := callerScope(c)
	if !scope.CanAccessAll() {
		existing, err := h.activityService.GetByID(c.Request.Context(), tenantID, activityID)
		if err != nil {
			h.HandleError(c, err)
			return tenantID, activityID, false
		}
		if !scopeAllows(scope, existing.OwnerID) {
			h.NotFound(c, "Activity not found")
			return tenantID, activityID, false
		}
	}

	return tenantID, activityID, true
}
