package datascope

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewFilter(t *testing.T) {
	userID := uuid.New()

	t.Run("admin gets all scope", func(t *testing.T) {
		filter := NewFilter(identity.RoleAdmin, userID)

		assert.True(t, filter.CanAccessAll())
	})

	t.Run("manager gets all scope", func(t *testing.T) {
		filter := NewFilter(identity.RoleManager, userID)

		assert.True(t, filter.CanAccessAll())
	})

	t.Run("sales gets self scope", func(t *testing.T) {
		filter := NewFilter(identity.RoleSales, userID)

		assert.False(t, filter.CanAccessAll())
		assert.Equal(t, userID, filter.UserID())
	})

	t.Run("support gets all scope", func(t *testing.T) {
		filter := NewFilter(identity.RoleSupport, userID)

		assert.True(t, filter.CanAccessAll())
	})
}

func TestNewFilterFromContext(t *testing.T) {
	userID := uuid.New()

	t.Run("reads user ID from context", func(t *testing.T) {
		ctx := context.Background()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())

		filter := NewFilterFromContext(ctx, identity.RoleSales)

		assert.Equal(t, userID, filter.UserID())
	})

	t.Run("missing user ID yields nil user", func(t *testing.T) {
		filter := NewFilterFromContext(context.Background(), identity.RoleSales)

		assert.Equal(t, uuid.Nil, filter.UserID())
	})
}

func TestFilter_IsOwner(t *testing.T) {
	userID := uuid.New()

	t.Run("matches own record", func(t *testing.T) {
		filter := NewFilter(identity.RoleSales, userID)

		assert.True(t, filter.IsOwner(userID))
		assert.False(t, filter.IsOwner(uuid.New()))
	})

	t.Run("nil user owns nothing", func(t *testing.T) {
		filter := NewFilter(identity.RoleSales, uuid.Nil)

		assert.False(t, filter.IsOwner(uuid.Nil))
	})
}
