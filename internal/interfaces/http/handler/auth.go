package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	auditapp "github.com/crm/backend/internal/application/audit"
	identityapp "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/audit"
	"github.com/crm/backend/internal/interfaces/http/middleware"
)

// AuthHandler serves login, token refresh and logout
type AuthHandler struct {
	BaseHandler
	authService  *identityapp.AuthService
	userService  *identityapp.UserService
	auditService *auditapp.AuditService
}

func NewAuthHandler(authService *identityapp.AuthService, userService *identityapp.UserService, auditService *auditapp.AuditService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		auditService: auditService,
	}
}

// Login authenticates a user and issues a token pair
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.RequestIP = c.ClientIP()

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Refresh exchanges a refresh token for a new token pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Logout revokes the presented access token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader(middleware.AuthHeaderKey), middleware.BearerPrefix)
	if token == "" {
		h.Unauthorized(c, "Missing access token")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		h.HandleError(c, err)
		return
	}

	// Logout does not raise a domain event, record it here.
	if tenantID, err := getTenantID(c); err == nil {
		if actorID, err := getActorID(c); err == nil {
			_ = h.auditService.Record(c.Request.Context(), tenantID, &actorID,
				audit.ActionLogout, "User", &actorID, "", c.ClientIP())
		}
	}

	h.NoContent(c)
}

// LogoutEverywhere revokes every token previously issued to the caller
// POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutEverywhere(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.LogoutEverywhere(c.Request.Context(), actorID.String()); err != nil {
		h.HandleError(c, err)
		return
	}

	if tenantID, err := getTenantID(c); err == nil {
		_ = h.auditService.Record(c.Request.Context(), tenantID, &actorID,
			audit.ActionLogout, "User", &actorID, "all sessions", c.ClientIP())
	}

	h.NoContent(c)
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
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

	user, err := h.userService.GetByID(c.Request.Context(), tenantID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ChangePassword changes the caller's own password and revokes existing
// sessions
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
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

	var req identityapp.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), tenantID, actorID, req); err != nil {
		h.HandleError(c, err)
		return
	}

	// A password change invalidates every outstanding token for the user.
	if err := h.authService.LogoutEverywhere(c.Request.Context(), actorID.String()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
