package identity

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*identity.User, error) {
	args := m.Called(ctx, tenantID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]identity.User, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, tenantID, role, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockUserRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error) {
	args := m.Called(ctx, tenantID, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

// Verify interface compliance
var _ identity.UserRepository = (*MockUserRepository)(nil)

// MockTenantRepository is a mock implementation of TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// Verify interface compliance
var _ identity.TenantRepository = (*MockTenantRepository)(nil)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-long-enough",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "crm-test",
	})
}

func newTestTenant(t *testing.T) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant("ACME", "Acme Corp")
	require.NoError(t, err)
	return tenant
}

func newTestUser(t *testing.T, tenantID uuid.UUID, password string) *identity.User {
	t.Helper()
	user, err := identity.NewActiveUser(tenantID, "jdoe", "jdoe@example.com", password, identity.RoleSales)
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func newAuthService(users *MockUserRepository, tenants *MockTenantRepository) *AuthService {
	return NewAuthService(users, tenants, newTestJWTService(), auth.NewInMemoryTokenBlacklist(), DefaultAuthServiceConfig())
}

func TestAuthService_Login_Success(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant.ID, "secret123A")

	mockTenants.On("FindByCode", ctx, "ACME").Return(tenant, nil)
	mockUsers.On("FindByUsername", ctx, tenant.ID, "jdoe").Return(user, nil)
	mockUsers.On("Save", ctx, user).Return(nil)

	result, err := service.Login(ctx, LoginRequest{
		TenantCode: "ACME",
		Username:   "jdoe",
		Password:   "secret123A",
		RequestIP:  "10.0.0.1",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, "jdoe", result.User.Username)
	assert.Equal(t, "sales", result.User.Role)
	assert.NotNil(t, user.LastLoginAt)
	assert.Equal(t, "10.0.0.1", user.LastLoginIP)
	mockUsers.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant.ID, "secret123A")

	mockTenants.On("FindByCode", ctx, "ACME").Return(tenant, nil)
	mockUsers.On("FindByUsername", ctx, tenant.ID, "jdoe").Return(user, nil)
	mockUsers.On("Save", ctx, user).Return(nil)

	result, err := service.Login(ctx, LoginRequest{
		TenantCode: "ACME",
		Username:   "jdoe",
		Password:   "wrong-password",
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	assert.Equal(t, 1, user.FailedAttempts)
}

func TestAuthService_Login_LockoutAfterMaxAttempts(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant.ID, "secret123A")

	mockTenants.On("FindByCode", ctx, "ACME").Return(tenant, nil)
	mockUsers.On("FindByUsername", ctx, tenant.ID, "jdoe").Return(user, nil)
	mockUsers.On("Save", ctx, user).Return(nil)

	req := LoginRequest{TenantCode: "ACME", Username: "jdoe", Password: "wrong-password"}
	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = service.Login(ctx, req)
	}

	var domainErr *shared.DomainError
	assert.ErrorAs(t, lastErr, &domainErr)
	assert.Equal(t, "ACCOUNT_LOCKED", domainErr.Code)
	assert.True(t, user.IsLocked())

	// The right password no longer helps while locked
	_, err := service.Login(ctx, LoginRequest{TenantCode: "ACME", Username: "jdoe", Password: "secret123A"})
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_LOCKED", domainErr.Code)
}

func TestAuthService_Login_SuspendedTenant(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	ctx := context.Background()
	tenant := newTestTenant(t)
	require.NoError(t, tenant.Suspend())

	mockTenants.On("FindByCode", ctx, "ACME").Return(tenant, nil)

	result, err := service.Login(ctx, LoginRequest{TenantCode: "ACME", Username: "jdoe", Password: "secret123A"})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TENANT_SUSPENDED", domainErr.Code)
	mockUsers.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_PendingUser(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	ctx := context.Background()
	tenant := newTestTenant(t)
	user, err := identity.NewUser(tenant.ID, "jdoe", "jdoe@example.com", "secret123A", identity.RoleSales)
	require.NoError(t, err)

	mockTenants.On("FindByCode", ctx, "ACME").Return(tenant, nil)
	mockUsers.On("FindByUsername", ctx, tenant.ID, "jdoe").Return(user, nil)

	result, err := service.Login(ctx, LoginRequest{TenantCode: "ACME", Username: "jdoe", Password: "secret123A"})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_PENDING", domainErr.Code)
}

func TestAuthService_RefreshToken_Success(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant.ID, "secret123A")

	mockTenants.On("FindByCode", ctx, "ACME").Return(tenant, nil)
	mockUsers.On("FindByUsername", ctx, tenant.ID, "jdoe").Return(user, nil)
	mockUsers.On("FindByID", ctx, user.ID).Return(user, nil)
	mockUsers.On("Save", ctx, user).Return(nil)

	login, err := service.Login(ctx, LoginRequest{TenantCode: "ACME", Username: "jdoe", Password: "secret123A"})
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken})

	assert.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, user.ID, refreshed.User.ID)
}

func TestAuthService_RefreshToken_SingleUse(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant.ID, "secret123A")

	mockTenants.On("FindByCode", ctx, "ACME").Return(tenant, nil)
	mockUsers.On("FindByUsername", ctx, tenant.ID, "jdoe").Return(user, nil)
	mockUsers.On("FindByID", ctx, user.ID).Return(user, nil)
	mockUsers.On("Save", ctx, user).Return(nil)

	login, err := service.Login(ctx, LoginRequest{TenantCode: "ACME", Username: "jdoe", Password: "secret123A"})
	require.NoError(t, err)

	_, err = service.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)

	// Replaying the consumed refresh token fails
	_, err = service.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken})
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
}

func TestAuthService_RefreshToken_Garbage(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	_, err := service.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: "not-a-token"})

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
}

func TestAuthService_Logout_RevokesAccessToken(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTenants := new(MockTenantRepository)
	service := newAuthService(mockUsers, mockTenants)

	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant.ID, "secret123A")

	mockTenants.On("FindByCode", ctx, "ACME").Return(tenant, nil)
	mockUsers.On("FindByUsername", ctx, tenant.ID, "jdoe").Return(user, nil)
	mockUsers.On("Save", ctx, user).Return(nil)

	login, err := service.Login(ctx, LoginRequest{TenantCode: "ACME", Username: "jdoe", Password: "secret123A"})
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(ctx, login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, login.AccessToken))

	_, err = service.ValidateAccessToken(ctx, login.AccessToken)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
}
