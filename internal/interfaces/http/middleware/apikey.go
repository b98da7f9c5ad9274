package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
)

// APIKeyHeader carries the raw API key for programmatic access.
const APIKeyHeader = "X-API-Key"

// APIKeyScopesKey is the gin context key holding the authenticated key's
// scopes.
const APIKeyScopesKey = "auth_api_key_scopes"

// APIKeyAuthConfig holds configuration for the API key middleware
type APIKeyAuthConfig struct {
	// Keys is required for prefix lookup and hash verification
	Keys identity.APIKeyRepository
	// Users resolves the key owner so role-based checks keep working for
	// programmatic callers
	Users identity.UserRepository
	// Logger for middleware logging
	Logger *zap.Logger
}

// APIKeyAuth authenticates requests carrying an X-API-Key header. Requests
// without the header pass through untouched so the JWT middleware can take
// over. Should run before JWTAuthMiddleware.
func APIKeyAuth(cfg APIKeyAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := c.GetHeader(APIKeyHeader)
		if rawKey == "" {
			c.Next()
			return
		}

		prefix, ok := identity.ParseAPIKeyPrefix(rawKey)
		if !ok {
			abortInvalidAPIKey(c, cfg.Logger, "Malformed API key")
			return
		}

		ctx := c.Request.Context()
		candidates, err := cfg.Keys.FindByPrefix(ctx, prefix)
		if err != nil || len(candidates) == 0 {
			abortInvalidAPIKey(c, cfg.Logger, "Unknown API key")
			return
		}

		// Prefixes are not unique by construction, match the hash among
		// the candidates.
		var key *identity.APIKey
		for i := range candidates {
			if candidates[i].Matches(rawKey) {
				key = &candidates[i]
				break
			}
		}
		if key == nil {
			abortInvalidAPIKey(c, cfg.Logger, "API key verification failed")
			return
		}

		if !key.IsUsable() {
			abortInvalidAPIKey(c, cfg.Logger, "API key is revoked or expired")
			return
		}

		var owner *identity.User
		if key.OwnerID != nil {
			owner, err = cfg.Users.FindByIDForTenant(ctx, key.TenantID, *key.OwnerID)
			if err != nil {
				abortInvalidAPIKey(c, cfg.Logger, "API key owner not found")
				return
			}
			if !owner.IsActive() {
				abortInvalidAPIKey(c, cfg.Logger, "API key owner is not active")
				return
			}
		}

		// Best effort, a stale last_used_at is not worth failing the request.
		if err := cfg.Keys.TouchLastUsed(ctx, key.ID); err != nil && cfg.Logger != nil {
			cfg.Logger.Warn("Failed to update API key last_used_at",
				zap.String("key_id", key.ID.String()),
				zap.Error(err))
		}

		c.Set(AuthTenantIDKey, key.TenantID.String())
		c.Set(AuthMethodKey, AuthMethodAPIKey)
		c.Set(APIKeyScopesKey, key.GetScopes())
		if owner != nil {
			c.Set(AuthUserIDKey, owner.ID.String())
			c.Set(AuthUsernameKey, owner.Username)
			c.Set(AuthRoleKey, string(owner.Role))
		}

		reqCtx := c.Request.Context()
		log := logger.FromContext(reqCtx)
		if owner != nil {
			reqCtx, log = logger.WithUserID(reqCtx, log, owner.ID.String())
			reqCtx = shared.WithActor(reqCtx, owner.ID)
		}
		reqCtx, _ = logger.WithTenantID(reqCtx, log, key.TenantID.String())
		c.Request = c.Request.WithContext(reqCtx)

		c.Next()
	}
}

// GetAPIKeyScopes returns the scopes of the authenticating API key, nil for
// JWT requests
func GetAPIKeyScopes(c *gin.Context) []identity.APIKeyScope {
	if scopes, exists := c.Get(APIKeyScopesKey); exists {
		if s, ok := scopes.([]identity.APIKeyScope); ok {
			return s
		}
	}
	return nil
}

func abortInvalidAPIKey(c *gin.Context, log *zap.Logger, message string) {
	if log != nil {
		log.Warn("API key authentication failed",
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Invalid API key", GetRequestID(c)))
}
