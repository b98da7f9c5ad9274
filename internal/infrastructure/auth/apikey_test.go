package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
)

type mockAPIKeyRepo struct {
	mock.Mock
}

func (m *mockAPIKeyRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.APIKey, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepo) FindByPrefix(ctx context.Context, prefix string) ([]identity.APIKey, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.APIKey, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepo) FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) ([]identity.APIKey, error) {
	args := m.Called(ctx, tenantID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepo) Save(ctx context.Context, key *identity.APIKey) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockAPIKeyRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *mockAPIKeyRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestAPIKeyAuthenticator(t *testing.T) {
	ctx := context.Background()

	newKey := func(t *testing.T) (*identity.APIKey, string) {
		t.Helper()
		key, raw, err := identity.NewAPIKey(uuid.New(), uuid.New(), "ci key", nil, nil)
		require.NoError(t, err)
		return key, raw
	}

	t.Run("authenticates a valid key and touches last used", func(t *testing.T) {
		key, raw := newKey(t)
		prefix, ok := identity.ParseAPIKeyPrefix(raw)
		require.True(t, ok)

		repo := new(mockAPIKeyRepo)
		repo.On("FindByPrefix", ctx, prefix).Return([]identity.APIKey{*key}, nil)
		repo.On("TouchLastUsed", ctx, key.ID).Return(nil)

		got, err := NewAPIKeyAuthenticator(repo).Authenticate(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, key.ID, got.ID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects malformed key without repository lookup", func(t *testing.T) {
		repo := new(mockAPIKeyRepo)
		_, err := NewAPIKeyAuthenticator(repo).Authenticate(ctx, "bogus")
		assert.ErrorIs(t, err, ErrMalformedAPIKey)
		repo.AssertNotCalled(t, "FindByPrefix")
	})

	t.Run("rejects unknown key", func(t *testing.T) {
		_, raw := newKey(t)
		prefix, _ := identity.ParseAPIKeyPrefix(raw)

		repo := new(mockAPIKeyRepo)
		repo.On("FindByPrefix", ctx, prefix).Return([]identity.APIKey{}, nil)

		_, err := NewAPIKeyAuthenticator(repo).Authenticate(ctx, raw)
		assert.ErrorIs(t, err, ErrUnknownAPIKey)
	})

	t.Run("rejects revoked key", func(t *testing.T) {
		key, raw := newKey(t)
		require.NoError(t, key.Revoke())
		prefix, _ := identity.ParseAPIKeyPrefix(raw)

		repo := new(mockAPIKeyRepo)
		repo.On("FindByPrefix", ctx, prefix).Return([]identity.APIKey{*key}, nil)

		_, err := NewAPIKeyAuthenticator(repo).Authenticate(ctx, raw)
		assert.ErrorIs(t, err, ErrUnusableAPIKey)
		repo.AssertNotCalled(t, "TouchLastUsed")
	})

	t.Run("touch failure does not reject the key", func(t *testing.T) {
		key, raw := newKey(t)
		prefix, _ := identity.ParseAPIKeyPrefix(raw)

		repo := new(mockAPIKeyRepo)
		repo.On("FindByPrefix", ctx, prefix).Return([]identity.APIKey{*key}, nil)
		repo.On("TouchLastUsed", ctx, key.ID).Return(assert.AnError)

		got, err := NewAPIKeyAuthenticator(repo).Authenticate(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, key.ID, got.ID)
	})
}
