// Package router assembles the gin engine, the middleware chain and the
// route table of the CRM API.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
)

// Handlers carries every HTTP handler the route table mounts
type Handlers struct {
	Auth     *handler.AuthHandler
	Contact  *handler.ContactHandler
	Deal     *handler.DealHandler
	Activity *handler.ActivityHandler
	User     *handler.UserHandler
	Tenant   *handler.TenantHandler
	APIKey   *handler.APIKeyHandler
	Audit    *handler.AuditHandler
	Task     *handler.TaskHandler
	Report   *handler.ReportHandler
	System   *handler.SystemHandler
}

// Config carries the infrastructure the middleware chain needs
type Config struct {
	App             *config.Config
	Logger          *zap.Logger
	Metrics         *telemetry.Metrics
	JWTService      *auth.JWTService
	TokenBlacklist  auth.TokenBlacklist
	APIKeyRepo      identity.APIKeyRepository
	UserRepo        identity.UserRepository
	TenantValidator middleware.TenantValidator
}

// New builds the engine with the full middleware chain and route table
func New(cfg Config, h Handlers) *gin.Engine {
	if cfg.App.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.App.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.App.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(middleware.Secure())
	engine.Use(corsMiddleware(cfg))
	engine.Use(middleware.BodyLimit(cfg.App.HTTP.MaxBodySize))
	if cfg.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	}
	if cfg.App.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.App.App.Name,
			Enabled:     true,
		}))
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.SpanErrorMarker())
	}
	if cfg.App.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}
	if cfg.App.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.App.HTTP.RateLimitRequests, cfg.App.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	engine.GET("/health", h.System.Health)
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := engine.Group("/api/v1")
	mountAuth(api, cfg, h)

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(middleware.APIKeyAuthConfig{
		Keys:   cfg.APIKeyRepo,
		Users:  cfg.UserRepo,
		Logger: cfg.Logger,
	}))
	jwtCfg := middleware.DefaultJWTConfig(cfg.JWTService)
	jwtCfg.TokenBlacklist = cfg.TokenBlacklist
	jwtCfg.Logger = cfg.Logger
	authed.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	authed.Use(middleware.TenantMiddleware(middleware.TenantMiddlewareConfig{
		Validator: cfg.TenantValidator,
		Required:  true,
		Logger:    cfg.Logger,
	}))
	if cfg.App.HTTP.RateLimitEnabled {
		// Runs after authentication, so tenants behind a shared proxy
		// get separate budgets.
		tenantLimiter := middleware.NewRateLimiter(cfg.App.HTTP.RateLimitRequests, cfg.App.HTTP.RateLimitWindow)
		authed.Use(middleware.RateLimit(tenantLimiter))
	}

	mountSession(authed, h)
	mountTenant(authed, h)
	mountContacts(authed, h)
	mountDeals(authed, h)
	mountActivities(authed, h)
	mountUsers(authed, h)
	mountAPIKeys(authed, h)
	mountAudit(authed, h)
	mountTasks(authed, h)
	mountReports(authed, h)
	mountMonitoring(authed, h)

	return engine
}

func corsMiddleware(cfg Config) gin.HandlerFunc {
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.App.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.App.HTTP.CORSAllowOrigins
	}
	if len(cfg.App.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.App.HTTP.CORSAllowMethods
	}
	if len(cfg.App.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.App.HTTP.CORSAllowHeaders
	}
	return middleware.CORSWithConfig(corsCfg)
}

// mountAuth mounts the credential endpoints. Login and refresh stay outside
// the authenticated group, but get a stricter per-IP rate limit so password
// guessing burns out fast.
func mountAuth(api *gin.RouterGroup, cfg Config, h Handlers) {
	group := api.Group("/auth")
	if cfg.App.HTTP.AuthRateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.App.HTTP.AuthRateLimitRequests, cfg.App.HTTP.AuthRateLimitWindow)
		group.Use(middleware.RateLimitByKey(limiter, func(c *gin.Context) string {
			return c.ClientIP()
		}))
	}
	group.POST("/login", h.Auth.Login)
	group.POST("/refresh", h.Auth.Refresh)

	// Tenant self-signup provisions the workspace and its first admin.
	api.POST("/tenants", h.Tenant.Create)
}

func mountSession(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/auth")
	group.POST("/logout", h.Auth.Logout)
	group.POST("/logout-all", h.Auth.LogoutEverywhere)
	group.GET("/me", h.Auth.Me)
	group.POST("/change-password", h.Auth.ChangePassword)
}

func mountTenant(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/tenant")
	group.GET("", h.Tenant.Get)

	admin := group.Group("")
	admin.Use(middleware.RequireRole(identity.RoleAdmin))
	admin.PUT("", h.Tenant.Update)
	admin.POST("/suspend", h.Tenant.Suspend)
	admin.POST("/activate", h.Tenant.Activate)
}

func mountContacts(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/contacts")
	group.GET("", h.Contact.List)
	group.GET("/deleted", h.Contact.ListDeleted)
	group.GET("/stats", h.Contact.CountByStatus)
	group.GET("/imports", h.Contact.ListImports)
	group.GET("/:id", h.Contact.Get)
	group.GET("/:id/deals", h.Deal.ListByContact)

	write := group.Group("")
	write.Use(middleware.RequireWrite())
	write.POST("", h.Contact.Create)
	write.POST("/import", h.Contact.Import)
	write.PUT("/:id", h.Contact.Update)
	write.POST("/:id/status", h.Contact.ChangeStatus)
	write.POST("/:id/reassign", h.Contact.Reassign)
	write.POST("/:id/restore", h.Contact.Restore)
	write.DELETE("/:id", h.Contact.Delete)
}

func mountDeals(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/deals")
	group.GET("", h.Deal.List)
	group.GET("/pipeline", h.Deal.PipelineSummary)
	group.GET("/:id", h.Deal.Get)
	group.GET("/:id/history", h.Deal.StageHistory)

	write := group.Group("")
	write.Use(middleware.RequireWrite())
	write.POST("", h.Deal.Create)
	write.PUT("/:id", h.Deal.Update)
	write.POST("/:id/stage", h.Deal.ChangeStage)
	write.POST("/:id/close-won", h.Deal.CloseWon)
	write.POST("/:id/close-lost", h.Deal.CloseLost)
	write.POST("/:id/reopen", h.Deal.Reopen)
	write.POST("/:id/reassign", h.Deal.Reassign)
	write.POST("/:id/restore", h.Deal.Restore)
	write.DELETE("/:id", h.Deal.Delete)
}

func mountActivities(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/activities")
	group.GET("", h.Activity.List)
	group.GET("/overdue", h.Activity.ListOverdue)
	group.GET("/stats", h.Activity.CountByStatus)
	group.GET("/:id", h.Activity.Get)
	group.GET("/:id/comments", h.Activity.ListComments)

	write := group.Group("")
	write.Use(middleware.RequireWrite())
	write.POST("", h.Activity.Create)
	write.PUT("/:id", h.Activity.Update)
	write.POST("/:id/start", h.Activity.Start)
	write.POST("/:id/complete", h.Activity.Complete)
	write.POST("/:id/cancel", h.Activity.Cancel)
	write.POST("/:id/reassign", h.Activity.Reassign)
	write.DELETE("/:id", h.Activity.Delete)
	write.POST("/:id/comments", h.Activity.AddComment)
	write.DELETE("/comments/:commentId", h.Activity.DeleteComment)
}

func mountUsers(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/users")
	group.Use(middleware.RequireUserManagement())
	group.POST("", h.User.Create)
	group.GET("", h.User.List)
	group.POST("/bulk-operations", h.User.BulkOperations)
	group.GET("/:id", h.User.Get)
	group.PUT("/:id", h.User.Update)
	group.POST("/:id/reset-password", h.User.ResetPassword)
	group.POST("/:id/activate", h.User.Activate)
	group.POST("/:id/deactivate", h.User.Deactivate)
	group.POST("/:id/lock", h.User.Lock)
	group.POST("/:id/unlock", h.User.Unlock)
	group.DELETE("/:id", h.User.Delete)
}

func mountAPIKeys(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/api-keys")
	group.GET("", h.APIKey.List)
	group.GET("/:id", h.APIKey.Get)

	write := group.Group("")
	write.Use(middleware.RequireWrite())
	write.POST("", h.APIKey.Create)
	write.POST("/:id/rotate", h.APIKey.Rotate)
	write.POST("/:id/revoke", h.APIKey.Revoke)
	write.DELETE("/:id", h.APIKey.Delete)
}

func mountAudit(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/audit-logs")
	group.Use(middleware.RequireRole(identity.RoleAdmin))
	group.GET("", h.Audit.List)
	group.GET("/:id", h.Audit.Get)
	group.GET("/resource/:type/:id", h.Audit.ListByResource)
	group.POST("/purge", h.Audit.Purge)
}

func mountTasks(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/tasks")
	group.GET("", h.Task.List)
	group.GET("/:id", h.Task.Get)
	group.GET("/:id/status", h.Task.Status)

	write := group.Group("")
	write.Use(middleware.RequireWrite())
	write.POST("/email", h.Task.EnqueueEmail)
	write.POST("/export", h.Task.EnqueueExport)
	write.POST("/report", h.Task.EnqueueReport)
	write.POST("/:id/cancel", h.Task.Cancel)
}

func mountReports(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/reports")
	group.GET("", h.Report.Get)
	group.GET("/latest/:kind", h.Report.GetLatest)

	write := group.Group("")
	write.Use(middleware.RequireWrite())
	write.POST("/regenerate", h.Report.Regenerate)
}

func mountMonitoring(authed *gin.RouterGroup, h Handlers) {
	group := authed.Group("/monitoring")
	group.GET("/system", h.System.SystemStatus)

	admin := group.Group("")
	admin.Use(middleware.RequireRole(identity.RoleAdmin))
	admin.POST("/alert-rules", h.System.CreateAlertRule)
	admin.GET("/alert-rules", h.System.ListAlertRules)
	admin.GET("/alert-rules/:id", h.System.GetAlertRule)
	admin.PUT("/alert-rules/:id", h.System.UpdateAlertRule)
	admin.DELETE("/alert-rules/:id", h.System.DeleteAlertRule)
	admin.GET("/alerts", h.System.ListAlerts)
	admin.POST("/alerts/:id/resolve", h.System.ResolveAlert)
}
