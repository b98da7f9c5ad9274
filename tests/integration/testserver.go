package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	activityapp "github.com/crm/backend/internal/application/activity"
	auditapp "github.com/crm/backend/internal/application/audit"
	contactapp "github.com/crm/backend/internal/application/contact"
	dealapp "github.com/crm/backend/internal/application/deal"
	identityapp "github.com/crm/backend/internal/application/identity"
	reportapp "github.com/crm/backend/internal/application/report"
	taskapp "github.com/crm/backend/internal/application/task"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/event"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
)

// TestServer wires the full application stack over a containerized
// database, with in-memory stand-ins for Redis-backed components.
type TestServer struct {
	DB     *TestDB
	Engine *gin.Engine

	UserRepo    *persistence.GormUserRepository
	ContactRepo *persistence.GormContactRepository
	AuditRepo   *persistence.GormAuditRepository

	AuthService    *identityapp.AuthService
	UserService    *identityapp.UserService
	TenantService  *identityapp.TenantService
	ContactService *contactapp.ContactService
	DealService    *dealapp.DealService
}

// NewTestServer builds the API server the same way cmd/server does,
// backed by a fresh PostgreSQL container.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	testDB := NewTestDB(t)
	log := zap.NewNop()

	tenantRepo := persistence.NewGormTenantRepository(testDB.DB)
	userRepo := persistence.NewGormUserRepository(testDB.DB)
	apiKeyRepo := persistence.NewGormAPIKeyRepository(testDB.DB)
	contactRepo := persistence.NewGormContactRepository(testDB.DB)
	dealRepo := persistence.NewGormDealRepository(testDB.DB)
	activityRepo := persistence.NewGormActivityRepository(testDB.DB)
	auditRepo := persistence.NewGormAuditRepository(testDB.DB)
	taskRepo := persistence.NewGormTaskRepository(testDB.DB)
	snapshotRepo := persistence.NewGormSnapshotRepository(testDB.DB)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-for-integration-testing-123",
		RefreshSecret:          "test-refresh-secret-for-integration-tests",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "crm-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(auditapp.NewRecorder(auditRepo, log))

	authService := identityapp.NewAuthService(userRepo, tenantRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig())
	authService.SetEventPublisher(eventBus)
	userService := identityapp.NewUserService(userRepo, tenantRepo)
	userService.SetEventPublisher(eventBus)
	tenantService := identityapp.NewTenantService(tenantRepo, userRepo)
	apiKeyService := identityapp.NewAPIKeyService(apiKeyRepo)
	apiKeyService.SetEventPublisher(eventBus)
	contactService := contactapp.NewContactService(contactRepo)
	contactService.SetEventPublisher(eventBus)
	importSessions := csvimport.NewInMemorySessionStore(time.Hour)
	t.Cleanup(importSessions.Stop)
	contactService.SetImportSessionStore(importSessions)
	dealService := dealapp.NewDealService(dealRepo, contactRepo)
	dealService.SetEventPublisher(eventBus)
	activityService := activityapp.NewActivityService(activityRepo, contactRepo, dealRepo)
	activityService.SetEventPublisher(eventBus)
	auditService := auditapp.NewAuditService(auditRepo)
	taskService := taskapp.NewTaskService(taskRepo, cache.NewInMemoryTaskStatusStore())
	reportService := reportapp.NewReportService(snapshotRepo)

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService, auditService),
		Contact:  handler.NewContactHandler(contactService),
		Deal:     handler.NewDealHandler(dealService),
		Activity: handler.NewActivityHandler(activityService),
		User:     handler.NewUserHandler(userService, authService),
		Tenant: handler.NewTenantHandler(tenantService),
		APIKey: handler.NewAPIKeyHandler(apiKeyService),
		Audit:  handler.NewAuditHandler(auditService),
		Task:   handler.NewTaskHandler(taskService),
		Report: handler.NewReportHandler(reportService, taskService),
		System: handler.NewSystemHandler(nil, nil, "test"),
	}

	metrics := telemetry.NewMetrics("crm-test")

	appCfg := &config.Config{}
	appCfg.App.Name = "crm-test"
	appCfg.App.Env = "test"
	appCfg.HTTP.MaxBodySize = 4 << 20

	engine := router.New(router.Config{
		App:             appCfg,
		Logger:          log,
		Metrics:         metrics,
		JWTService:      jwtService,
		TokenBlacklist:  blacklist,
		APIKeyRepo:      apiKeyRepo,
		UserRepo:        userRepo,
		TenantValidator: middleware.NewRepositoryTenantValidator(tenantRepo, time.Second),
	}, handlers)

	return &TestServer{
		DB:             testDB,
		Engine:         engine,
		UserRepo:       userRepo,
		ContactRepo:    contactRepo,
		AuditRepo:      auditRepo,
		AuthService:    authService,
		UserService:    userService,
		TenantService:  tenantService,
		ContactService: contactService,
		DealService:    dealService,
	}
}

// Do performs an HTTP request against the test server. A non-empty token
// is sent as a bearer credential.
func (s *TestServer) Do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	return w
}

// DecodeData unmarshals the data field of a success envelope into out.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success envelope, got %s", w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// Signup provisions a tenant with its first admin through the public API.
func (s *TestServer) Signup(t *testing.T, code, adminUsername, adminEmail, adminPassword string) {
	t.Helper()

	w := s.Do(t, http.MethodPost, "/api/v1/tenants", "", map[string]interface{}{
		"code":           code,
		"name":           "Tenant " + code,
		"admin_username": adminUsername,
		"admin_email":    adminEmail,
		"admin_password": adminPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, "signup failed: %s", w.Body.String())
}

// LoginTokens holds the credentials returned by a successful login.
type LoginTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates and returns the token pair.
func (s *TestServer) Login(t *testing.T, tenantCode, username, password string) LoginTokens {
	t.Helper()

	w := s.Do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"tenant_code": tenantCode,
		"username":    username,
		"password":    password,
	})
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	var tokens LoginTokens
	DecodeData(t, w, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	return tokens
}
