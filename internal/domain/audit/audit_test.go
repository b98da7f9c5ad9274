package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()
	resourceID := uuid.New()

	t.Run("creates entry", func(t *testing.T) {
		e, err := NewEntry(tenantID, &actorID, ActionCreate, "Contact", &resourceID, `{"last_name":"Lovelace"}`, "10.0.0.1")

		require.NoError(t, err)
		assert.Equal(t, tenantID, e.TenantID)
		assert.Equal(t, ActionCreate, e.Action)
		assert.Equal(t, "Contact", e.ResourceType)
		assert.Equal(t, "10.0.0.1", e.RequestIP)
	})

	t.Run("empty detail becomes empty object", func(t *testing.T) {
		e, err := NewEntry(tenantID, nil, ActionLogin, "User", nil, "", "")

		require.NoError(t, err)
		assert.Equal(t, "{}", e.Detail)
		assert.Nil(t, e.ActorID)
	})

	t.Run("rejects unknown action", func(t *testing.T) {
		_, err := NewEntry(tenantID, &actorID, Action("peek"), "Contact", nil, "", "")

		assert.Error(t, err)
	})

	t.Run("rejects empty resource type", func(t *testing.T) {
		_, err := NewEntry(tenantID, &actorID, ActionCreate, "", nil, "", "")

		assert.Error(t, err)
	})
}
