package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/interfaces/http/dto"
)

// PermissionConfig holds configuration for the permission middleware
type PermissionConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
}

// RequireRole allows only callers holding one of the given roles
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(PermissionConfig{}, roles...)
}

// RequireRoleWithConfig allows only callers holding one of the given roles,
// with custom config
func RequireRoleWithConfig(cfg PermissionConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetAuthRole(c)
		if !ok {
			abortForbidden(c, cfg, "No role in authentication context")
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		abortForbidden(c, cfg, "Role not permitted for this endpoint")
	}
}

// RequireWrite allows only callers that may mutate CRM records. Support
// users are read-only, and API key requests additionally need the write
// scope.
func RequireWrite() gin.HandlerFunc {
	return RequireWriteWithConfig(PermissionConfig{})
}

// RequireWriteWithConfig allows only callers that may mutate CRM records,
// with custom config
func RequireWriteWithConfig(cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetAuthRole(c)
		if !ok {
			abortForbidden(c, cfg, "No role in authentication context")
			return
		}

		if !role.CanWrite() {
			abortForbidden(c, cfg, "Role is read-only")
			return
		}

		if GetAuthMethod(c) == AuthMethodAPIKey && !hasAPIKeyScope(c, identity.APIKeyScopeWrite) {
			abortForbidden(c, cfg, "API key lacks write scope")
			return
		}

		c.Next()
	}
}

// RequireUserManagement allows only callers that may administer users,
// tenants and API keys
func RequireUserManagement() gin.HandlerFunc {
	return RequireUserManagementWithConfig(PermissionConfig{})
}

// RequireUserManagementWithConfig allows only callers that may administer
// users, tenants and API keys, with custom config
func RequireUserManagementWithConfig(cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetAuthRole(c)
		if !ok {
			abortForbidden(c, cfg, "No role in authentication context")
			return
		}

		if !role.CanManageUsers() {
			abortForbidden(c, cfg, "Administration requires the admin role")
			return
		}

		c.Next()
	}
}

func hasAPIKeyScope(c *gin.Context, scope identity.APIKeyScope) bool {
	for _, s := range GetAPIKeyScopes(c) {
		if s == scope {
			return true
		}
	}
	return false
}

func abortForbidden(c *gin.Context, cfg PermissionConfig, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Permission denied",
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", GetAuthUserID(c)),
		)
	}
	c.AbortWithStatusJSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Insufficient permissions", GetRequestID(c)))
}
