package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/interfaces/http/middleware"
)

// APIKeyHandler serves the API key endpoints. Admins see every key in the
// tenant, other roles only their own.
type APIKeyHandler struct {
	BaseHandler
	apiKeyService *identityapp.APIKeyService
}

func NewAPIKeyHandler(apiKeyService *identityapp.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{apiKeyService: apiKeyService}
}

// Create mints a key owned by the caller. The raw secret is only present
// in this response.
// POST /api/v1/api-keys
func (h *APIKeyHandler) Create(c *gin.Context) {
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

	var req identityapp.CreateAPIKeyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.OwnerID = actorID

	result, err := h.apiKeyService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns a single key without its secret
// GET /api/v1/api-keys/:id
func (h *APIKeyHandler) Get(c *gin.Context) {
	tenantID, keyID, ok := h.resolve(c)
	if !ok {
		return
	}

	result, err := h.apiKeyService.GetByID(c.Request.Context(), tenantID, keyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns the keys visible to the caller
// GET /api/v1/api-keys
func (h *APIKeyHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	role, _ := middleware.GetAuthRole(c)
	if role == identity.RoleAdmin {
		results, err := h.apiKeyService.List(c.Request.Context(), tenantID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, results)
		return
	}

	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	results, err := h.apiKeyService.ListByOwner(c.Request.Context(), tenantID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// Rotate replaces the key's secret and returns the new raw value once
// POST /api/v1/api-keys/:id/rotate
func (h *APIKeyHandler) Rotate(c *gin.Context) {
	tenantID, keyID, ok := h.resolve(c)
	if !ok {
		return
	}

	result, err := h.apiKeyService.Rotate(c.Request.Context(), tenantID, keyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Revoke permanently disables a key
// POST /api/v1/api-keys/:id/revoke
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	tenantID, keyID, ok := h.resolve(c)
	if !ok {
		return
	}

	result, err := h.apiKeyService.Revoke(c.Request.Context(), tenantID, keyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete removes a key
// DELETE /api/v1/api-keys/:id
func (h *APIKeyHandler) Delete(c *gin.Context) {
	tenantID, keyID, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := h.apiKeyService.Delete(c.Request.Context(), tenantID, keyID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *APIKeyHandler) resolve(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return tenantID, uuid.Nil, false
	}
	keyID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid API key ID")
		return tenantID, keyID, false
	}
	return tenantID, keyID, true
}
