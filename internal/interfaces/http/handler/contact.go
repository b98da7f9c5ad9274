package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	contactapp "github.com/crm/backend/internal/application/contact"
)

// ContactHandler serves the contact endpoints
type ContactHandler struct {
	BaseHandler
	contactService *contactapp.ContactService
}

func NewContactHandler(contactService *contactapp.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Create creates a contact owned by the caller
// POST /api/v1/contacts
func (h *ContactHandler) Create(c *gin.Context) {
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

	var req contactapp.CreateContactRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.OwnerID = actorID

	result, err := h.contactService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns a single contact
// GET /api/v1/contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
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

	result, err := h.contactService.GetByID(c.Request.Context(), tenantID, contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !scopeAllows(callerScope(c), result.OwnerID) {
		h.NotFound(c, "Contact not found")
		return
	}

	h.Success(c, result)
}

// List returns a paginated contact list
// GET /api/v1/contacts
func (h *ContactHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter contactapp.ContactListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	restrictListToOwner(callerScope(c), &filter.OwnerID)

	results, total, err := h.contactService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, results, total, filter.Page, filter.PageSize)
}

// ListDeleted returns soft-deleted contacts
// GET /api/v1/contacts/deleted
func (h *ContactHandler) ListDeleted(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter contactapp.ContactListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	restrictListToOwner(callerScope(c), &filter.OwnerID)

	results, err := h.contactService.ListDeleted(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// Update updates a contact's fields
// PUT /api/v1/contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	tenantID, contactID, ok := h.scopedContact(c)
	if !ok {
		return
	}

	var req contactapp.UpdateContactRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.contactService.Update(c.Request.Context(), tenantID, contactID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ChangeStatus moves a contact along the lifecycle
// POST /api/v1/contacts/:id/status
func (h *ContactHandler) ChangeStatus(c *gin.Context) {
	tenantID, contactID, ok := h.scopedContact(c)
	if !ok {
		return
	}

	var req contactapp.ChangeContactStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.contactService.ChangeStatus(c.Request.Context(), tenantID, contactID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Reassign transfers ownership of a contact
// POST /api/v1/contacts/:id/reassign
func (h *ContactHandler) Reassign(c *gin.Context) {
	tenantID, contactID, ok := h.scopedContact(c)
	if !ok {
		return
	}

	var req struct {
		OwnerID string `json:"owner_id" binding:"required,uuid"`
	}
	if !h.BindJSON(c, &req) {
		return
	}
	newOwnerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	result, err := h.contactService.Reassign(c.Request.Context(), tenantID, contactID, newOwnerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete soft-deletes a contact
// DELETE /api/v1/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	tenantID, contactID, ok := h.scopedContact(c)
	if !ok {
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), tenantID, contactID, actorID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Restore brings a soft-deleted contact back
// POST /api/v1/contacts/:id/restore
func (h *ContactHandler) Restore(c *gin.Context) {
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

	result, err := h.contactService.Restore(c.Request.Context(), tenantID, contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CountByStatus returns contact counts grouped by lifecycle status
// GET /api/v1/contacts/stats
func (h *ContactHandler) CountByStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	results, err := h.contactService.CountByStatus(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// Import creates contacts in bulk from an uploaded CSV file
// POST /api/v1/contacts/import
func (h *ContactHandler) Import(c *gin.Context) {
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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "CSV file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}

	result, err := h.contactService.ImportCSV(c.Request.Context(), tenantID, actorID, fileHeader.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListImports returns recent CSV import sessions for the tenant
// GET /api/v1/contacts/imports
func (h *ContactHandler) ListImports(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query struct {
		Limit int `form:"limit"`
	}
	if !h.BindQuery(c, &query) {
		return
	}

	sessions, err := h.contactService.ListImports(c.Request.Context(), tenantID, query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sessions)
}

// scopedContact resolves the tenant and contact from the request and checks
// that the caller's data scope covers the contact. A response has already
// been written when ok is false.
func (h *ContactHandler) scopedContact(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tid, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return tid, uuid.Nil, false
	}
	cid, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contact ID")
		return tid, cid, false
	}

	scope := callerScope(c)
	if !scope.CanAccessAll() {
		existing, err := h.contactService.GetByID(c.Request.Context(), tid, cid)
		if err != nil {
			h.HandleError(c, err)
			return tid, cid, false
		}
		if !scopeAllows(scope, existing.OwnerID) {
			h.NotFound(c, "Contact not found")
			return tid, cid, false
		}
	}

	return tid, cid, true
}
