package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAPIKeyRepository is a mock implementation of APIKeyRepository
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.APIKey, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) FindByPrefix(ctx context.Context, prefix string) ([]identity.APIKey, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.APIKey, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) ([]identity.APIKey, error) {
	args := m.Called(ctx, tenantID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Save(ctx context.Context, key *identity.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Verify interface compliance
var _ identity.APIKeyRepository = (*MockAPIKeyRepository)(nil)

func newTestOwnerID() uuid.UUID {
	return uuid.MustParse("22222222-2222-2222-2222-222222222222")
}

func TestAPIKeyService_Create_ReturnsRawKeyOnce(t *testing.T) {
	mockRepo := new(MockAPIKeyRepository)
	service := NewAPIKeyService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()

	mockRepo.On("Save", ctx, mock.AnythingOfType("*identity.APIKey")).Return(nil)

	result, err := service.Create(ctx, tenantID, CreateAPIKeyRequest{
		Name:    "ci-pipeline",
		Scopes:  []string{"read", "write"},
		OwnerID: newTestOwnerID(),
	})

	assert.NoError(t, err)
	assert.Equal(t, "ci-pipeline", result.Name)
	assert.True(t, strings.HasPrefix(result.Key, "crm_"))
	assert.Contains(t, result.Scopes, "write")
	mockRepo.AssertExpectations(t)
}

func TestAPIKeyService_GetByID_OmitsSecret(t *testing.T) {
	mockRepo := new(MockAPIKeyRepository)
	service := NewAPIKeyService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	key, _, err := identity.NewAPIKey(tenantID, newTestOwnerID(), "reporting", []identity.APIKeyScope{identity.APIKeyScopeRead}, nil)
	require.NoError(t, err)
	key.ClearDomainEvents()

	mockRepo.On("FindByID", ctx, tenantID, key.ID).Return(key, nil)

	result, err := service.GetByID(ctx, tenantID, key.ID)

	assert.NoError(t, err)
	assert.Empty(t, result.Key)
	assert.Equal(t, key.Prefix, result.Prefix)
}

func TestAPIKeyService_Rotate_ChangesPrefixAndReturnsNewRaw(t *testing.T) {
	mockRepo := new(MockAPIKeyRepository)
	service := NewAPIKeyService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	key, oldRaw, err := identity.NewAPIKey(tenantID, newTestOwnerID(), "reporting", nil, nil)
	require.NoError(t, err)
	key.ClearDomainEvents()
	oldPrefix := key.Prefix

	mockRepo.On("FindByID", ctx, tenantID, key.ID).Return(key, nil)
	mockRepo.On("Save", ctx, key).Return(nil)

	result, err := service.Rotate(ctx, tenantID, key.ID)

	assert.NoError(t, err)
	assert.NotEmpty(t, result.Key)
	assert.NotEqual(t, oldRaw, result.Key)
	assert.NotEqual(t, oldPrefix, result.Prefix)
	assert.False(t, key.Matches(oldRaw))
	assert.True(t, key.Matches(result.Key))
}

func TestAPIKeyService_Revoke_Success(t *testing.T) {
	mockRepo := new(MockAPIKeyRepository)
	service := NewAPIKeyService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	key, _, err := identity.NewAPIKey(tenantID, newTestOwnerID(), "reporting", nil, nil)
	require.NoError(t, err)
	key.ClearDomainEvents()

	mockRepo.On("FindByID", ctx, tenantID, key.ID).Return(key, nil)
	mockRepo.On("Save", ctx, key).Return(nil)

	result, err := service.Revoke(ctx, tenantID, key.ID)

	assert.NoError(t, err)
	assert.True(t, result.Revoked)
	assert.False(t, key.IsUsable())
}

func TestAPIKeyService_Rotate_RevokedRejected(t *testing.T) {
	mockRepo := new(MockAPIKeyRepository)
	service := NewAPIKeyService(mockRepo)

	ctx := context.Background()
	tenantID := newTestTenantID()
	key, _, err := identity.NewAPIKey(tenantID, newTestOwnerID(), "reporting", nil, nil)
	require.NoError(t, err)
	require.NoError(t, key.Revoke())
	key.ClearDomainEvents()

	mockRepo.On("FindByID", ctx, tenantID, key.ID).Return(key, nil)

	_, err = service.Rotate(ctx, tenantID, key.ID)

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "KEY_REVOKED", domainErr.Code)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
