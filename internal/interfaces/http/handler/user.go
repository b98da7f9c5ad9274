package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/crm/backend/internal/application/identity"
)

// UserHandler serves the user management endpoints. The router restricts
// every route here to the admin role.
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
	authService *identityapp.AuthService
}

func NewUserHandler(userService *identityapp.UserService, authService *identityapp.AuthService) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

// Create creates a user in the caller's tenant
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req identityapp.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.userService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns a single user
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	tenantID, userID, ok := h.resolve(c)
	if !ok {
		return
	}

	result, err := h.userService.GetByID(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns a paginated user list
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter identityapp.UserListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	results, total, err := h.userService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, results, total, filter.Page, filter.PageSize)
}

// Update updates a user's profile or role
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.resolve(c)
	if !ok {
		return
	}

	var req identityapp.UpdateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.userService.Update(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ResetPassword sets a new password for a user and revokes their sessions
// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	tenantID, userID, ok := h.resolve(c)
	if !ok {
		return
	}

	var req identityapp.ResetPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), tenantID, userID, req); err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.authService.LogoutEverywhere(c.Request.Context(), userID.String()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate enables a pending or deactivated user
// POST /api/v1/users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	h.statusChange(c, h.userService.Activate)
}

// Deactivate disables a user without deleting them
// POST /api/v1/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	tenantID, userID, ok := h.resolve(c)
	if !ok {
		return
	}

	result, err := h.userService.Deactivate(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// A deactivated user must not keep working on an old token.
	if err := h.authService.LogoutEverywhere(c.Request.Context(), userID.String()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Lock locks a user account until an admin unlocks it
// POST /api/v1/users/:id/lock
func (h *UserHandler) Lock(c *gin.Context) {
	tenantID, userID, ok := h.resolve(c)
	if !ok {
		return
	}

	result, err := h.userService.Lock(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// A locked user must not keep working on an old token.
	if err := h.authService.LogoutEverywhere(c.Request.Context(), userID.String()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Unlock clears a lockout caused by failed login attempts
// POST /api/v1/users/:id/unlock
func (h *UserHandler) Unlock(c *gin.Context) {
	h.statusChange(c, h.userService.Unlock)
}

// Delete soft-deletes a user
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	tenantID, userID, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), tenantID, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.authService.LogoutEverywhere(c.Request.Context(), userID.String()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// BulkOperations applies one operation to a list of users and reports
// per-user outcomes
// POST /api/v1/users/bulk-operations
func (h *UserHandler) BulkOperations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req struct {
		Operation string      `json:"operation" binding:"required,oneof=activate deactivate delete"`
		UserIDs   []uuid.UUID `json:"user_ids" binding:"required,min=1,max=100"`
	}
	if !h.BindJSON(c, &req) {
		return
	}

	bulkReq := identityapp.BulkUserRequest{UserIDs: req.UserIDs}

	var result *identityapp.BulkUserResult
	switch req.Operation {
	case "activate":
		result, err = h.userService.BulkActivate(c.Request.Context(), tenantID, bulkReq)
	case "deactivate":
		result, err = h.userService.BulkDeactivate(c.Request.Context(), tenantID, bulkReq)
	case "delete":
		result, err = h.userService.BulkDelete(c.Request.Context(), tenantID, bulkReq)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// Deactivated and deleted users lose their outstanding sessions.
	if req.Operation != "activate" {
		for _, id := range result.Succeeded {
			if err := h.authService.LogoutEverywhere(c.Request.Context(), id.String()); err != nil {
				h.HandleError(c, err)
				return
			}
		}
	}

	h.Success(c, result)
}

type userStatusChangeFunc func(ctx context.Context, tenantID, userID uuid.UUID) (*identityapp.UserResponse, error)

func (h *UserHandler) statusChange(c *gin.Context, fn userStatusChangeFunc) {
	tenantID, userID, ok := h.resolve(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func (h *UserHandler) resolve(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return tenantID, uuid.Nil, false
	}
	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return tenantID, userID, false
	}
	return tenantID, userID, true
}
