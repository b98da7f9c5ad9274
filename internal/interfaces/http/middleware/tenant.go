package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/interfaces/http/dto"
)

// TenantValidator checks that a tenant may serve requests
type TenantValidator interface {
	ValidateTenant(ctx context.Context, tenantID uuid.UUID) error
}

// RepositoryTenantValidator validates tenants against the tenant repository
// with a short-lived positive cache, so a suspended tenant is cut off within
// the cache TTL instead of on its next login.
type RepositoryTenantValidator struct {
	tenants identity.TenantRepository
	ttl     time.Duration

	mu    sync.Mutex
	cache map[uuid.UUID]time.Time
}

// NewRepositoryTenantValidator creates a validator caching positive results
// for ttl
func NewRepositoryTenantValidator(tenants identity.TenantRepository, ttl time.Duration) *RepositoryTenantValidator {
	return &RepositoryTenantValidator{
		tenants: tenants,
		ttl:     ttl,
		cache:   make(map[uuid.UUID]time.Time),
	}
}

// ValidateTenant returns nil when the tenant exists and is active
func (v *RepositoryTenantValidator) ValidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	v.mu.Lock()
	if expires, ok := v.cache[tenantID]; ok && time.Now().Before(expires) {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	tenant, err := v.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !tenant.IsActive() {
		return shared.NewDomainError("TENANT_SUSPENDED", "This workspace is suspended")
	}

	v.mu.Lock()
	v.cache[tenantID] = time.Now().Add(v.ttl)
	v.mu.Unlock()
	return nil
}

// TenantMiddlewareConfig holds configuration for the tenant middleware
type TenantMiddlewareConfig struct {
	// Validator rejects requests from missing or suspended tenants. Nil
	// skips validation.
	Validator TenantValidator
	// Required rejects requests with no tenant in the auth context
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// TenantMiddleware verifies the tenant resolved during authentication is
// present and still allowed to serve requests. Should run after the
// authentication middleware.
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantIDStr := GetAuthTenantID(c)
		if tenantIDStr == "" {
			if cfg.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Missing tenant context", GetRequestID(c)))
				return
			}
			c.Next()
			return
		}

		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Invalid tenant context", GetRequestID(c)))
			return
		}

		if cfg.Validator != nil {
			if err := cfg.Validator.ValidateTenant(c.Request.Context(), tenantID); err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Warn("Tenant rejected",
						zap.String("tenant_id", tenantIDStr),
						zap.Error(err))
				}
				c.AbortWithStatusJSON(http.StatusForbidden,
					dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Tenant is not active", GetRequestID(c)))
				return
			}
		}

		c.Next()
	}
}
