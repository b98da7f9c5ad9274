package contact

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContact(t *testing.T) {
	tenantID := uuid.New()
	ownerID := uuid.New()

	t.Run("creates contact successfully", func(t *testing.T) {
		c, err := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceWeb)

		require.NoError(t, err)
		assert.NotNil(t, c)
		assert.Equal(t, "Ada", c.FirstName)
		assert.Equal(t, "Lovelace", c.LastName)
		assert.Equal(t, ContactStatusLead, c.Status)
		assert.Equal(t, ContactSourceWeb, c.Source)
		assert.Equal(t, tenantID, c.TenantID)
		require.NotNil(t, c.OwnerID)
		assert.Equal(t, ownerID, *c.OwnerID)
		assert.False(t, c.IsDeleted())
		assert.Len(t, c.GetDomainEvents(), 1)
	})

	t.Run("defaults source to manual", func(t *testing.T) {
		c, err := NewContact(tenantID, ownerID, "", "Solo", "")

		require.NoError(t, err)
		assert.Equal(t, ContactSourceManual, c.Source)
	})

	t.Run("fails with empty last name", func(t *testing.T) {
		c, err := NewContact(tenantID, ownerID, "Ada", "", ContactSourceWeb)

		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "Last name cannot be empty")
	})

	t.Run("fails with invalid source", func(t *testing.T) {
		c, err := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSource("carrier-pigeon"))

		assert.Error(t, err)
		assert.Nil(t, c)
	})
}

func TestContactFullName(t *testing.T) {
	tenantID := uuid.New()
	ownerID := uuid.New()

	c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)
	assert.Equal(t, "Ada Lovelace", c.FullName())

	c2, _ := NewContact(tenantID, ownerID, "", "Lovelace", ContactSourceManual)
	assert.Equal(t, "Lovelace", c2.FullName())
}

func TestContactUpdate(t *testing.T) {
	tenantID := uuid.New()
	ownerID := uuid.New()
	c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)
	c.ClearDomainEvents()

	t.Run("updates basic fields", func(t *testing.T) {
		err := c.Update("Augusta", "King", "Analytical Engines Ltd", "Countess")

		require.NoError(t, err)
		assert.Equal(t, "Augusta", c.FirstName)
		assert.Equal(t, "King", c.LastName)
		assert.Equal(t, "Analytical Engines Ltd", c.Company)
		assert.Equal(t, "Countess", c.JobTitle)
		assert.Len(t, c.GetDomainEvents(), 1)
	})

	t.Run("fails with empty last name", func(t *testing.T) {
		err := c.Update("Augusta", "", "", "")

		assert.Error(t, err)
	})

	t.Run("rejects update on deleted contact", func(t *testing.T) {
		deleted, _ := NewContact(tenantID, ownerID, "", "Ghost", ContactSourceManual)
		require.NoError(t, deleted.Delete(ownerID))

		err := deleted.Update("New", "Name", "", "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "deleted")
	})
}

func TestContactSetContactInfo(t *testing.T) {
	tenantID := uuid.New()
	ownerID := uuid.New()
	c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)

	t.Run("sets valid email and phone", func(t *testing.T) {
		err := c.SetContactInfo("Ada@Example.COM", "+44 20 7946 0958")

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", c.Email)
		assert.Equal(t, "+44 20 7946 0958", c.Phone)
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		err := c.SetContactInfo("not-an-email", "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "email")
	})

	t.Run("fails with invalid phone characters", func(t *testing.T) {
		err := c.SetContactInfo("", "call me maybe")

		assert.Error(t, err)
	})
}

func TestContactChangeStatus(t *testing.T) {
	tenantID := uuid.New()
	ownerID := uuid.New()

	t.Run("moves through lifecycle", func(t *testing.T) {
		c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)
		c.ClearDomainEvents()

		require.NoError(t, c.ChangeStatus(ContactStatusProspect))
		require.NoError(t, c.ChangeStatus(ContactStatusCustomer))
		assert.True(t, c.IsCustomer())
		assert.Len(t, c.GetDomainEvents(), 2)
	})

	t.Run("rejects same status", func(t *testing.T) {
		c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)

		err := c.ChangeStatus(ContactStatusLead)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already")
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)

		err := c.ChangeStatus(ContactStatus("vip"))

		assert.Error(t, err)
	})
}

func TestContactTags(t *testing.T) {
	tenantID := uuid.New()
	ownerID := uuid.New()
	c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)

	t.Run("round-trips tags", func(t *testing.T) {
		require.NoError(t, c.SetTags([]string{"vip", "newsletter"}))
		assert.Equal(t, []string{"vip", "newsletter"}, c.GetTags())
	})

	t.Run("nil tags become empty list", func(t *testing.T) {
		require.NoError(t, c.SetTags(nil))
		assert.Equal(t, []string{}, c.GetTags())
	})

	t.Run("rejects empty tag", func(t *testing.T) {
		err := c.SetTags([]string{""})

		assert.Error(t, err)
	})
}

func TestContactSoftDelete(t *testing.T) {
	tenantID := uuid.New()
	ownerID := uuid.New()

	t.Run("delete then restore", func(t *testing.T) {
		c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)
		c.ClearDomainEvents()

		require.NoError(t, c.Delete(ownerID))
		assert.True(t, c.IsDeleted())
		require.NotNil(t, c.DeletedBy)
		assert.Equal(t, ownerID, *c.DeletedBy)

		require.NoError(t, c.Undelete())
		assert.False(t, c.IsDeleted())
		assert.Nil(t, c.DeletedAt)
		assert.Len(t, c.GetDomainEvents(), 2)
	})

	t.Run("double delete fails", func(t *testing.T) {
		c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)
		require.NoError(t, c.Delete(ownerID))

		err := c.Delete(ownerID)

		assert.Error(t, err)
	})

	t.Run("restore of live contact fails", func(t *testing.T) {
		c, _ := NewContact(tenantID, ownerID, "Ada", "Lovelace", ContactSourceManual)

		err := c.Undelete()

		assert.Error(t, err)
	})
}
