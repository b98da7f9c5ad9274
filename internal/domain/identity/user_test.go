package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates pending user", func(t *testing.T) {
		u, err := NewUser(tenantID, "JSmith", "J.Smith@Example.com", "password1", RoleSales)

		require.NoError(t, err)
		assert.Equal(t, "jsmith", u.Username)
		assert.Equal(t, "j.smith@example.com", u.Email)
		assert.Equal(t, RoleSales, u.Role)
		assert.Equal(t, UserStatusPending, u.Status)
		assert.NotEqual(t, "password1", u.PasswordHash)
		assert.True(t, u.VerifyPassword("password1"))
		assert.False(t, u.CanLogin())
		assert.Len(t, u.GetDomainEvents(), 1)
	})

	t.Run("active user can login", func(t *testing.T) {
		u, err := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleAdmin)

		require.NoError(t, err)
		assert.True(t, u.IsActive())
		assert.True(t, u.CanLogin())
	})

	t.Run("fails with short username", func(t *testing.T) {
		_, err := NewUser(tenantID, "ab", "a@example.com", "password1", RoleSales)

		assert.Error(t, err)
	})

	t.Run("fails with weak password", func(t *testing.T) {
		_, err := NewUser(tenantID, "jsmith", "j@example.com", "passwords", RoleSales)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "letter and one number")
	})

	t.Run("fails with missing email", func(t *testing.T) {
		_, err := NewUser(tenantID, "jsmith", "", "password1", RoleSales)

		assert.Error(t, err)
	})

	t.Run("fails with unknown role", func(t *testing.T) {
		_, err := NewUser(tenantID, "jsmith", "j@example.com", "password1", Role("superuser"))

		assert.Error(t, err)
	})
}

func TestUserPasswords(t *testing.T) {
	tenantID := uuid.New()

	t.Run("change password verifies the old one", func(t *testing.T) {
		u, _ := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)

		err := u.ChangePassword("wrong", "newpassword1")
		assert.Error(t, err)

		err = u.ChangePassword("password1", "newpassword1")
		require.NoError(t, err)
		assert.True(t, u.VerifyPassword("newpassword1"))
		assert.False(t, u.VerifyPassword("password1"))
	})

	t.Run("admin reset clears must-change flag", func(t *testing.T) {
		u, _ := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)
		u.ForcePasswordChange()
		require.True(t, u.MustChangePassword)

		require.NoError(t, u.SetPassword("newpassword1"))
		assert.False(t, u.MustChangePassword)
	})
}

func TestUserLockout(t *testing.T) {
	tenantID := uuid.New()

	t.Run("locks after max failed attempts", func(t *testing.T) {
		u, _ := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)

		assert.False(t, u.RecordLoginFailure(3, time.Hour))
		assert.False(t, u.RecordLoginFailure(3, time.Hour))
		assert.True(t, u.RecordLoginFailure(3, time.Hour))

		assert.True(t, u.IsLocked())
		assert.False(t, u.CanLogin())
	})

	t.Run("expired lock no longer blocks login", func(t *testing.T) {
		u, _ := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)
		require.NoError(t, u.Lock(-time.Minute))

		assert.False(t, u.IsLocked())
	})

	t.Run("unlock resets attempts", func(t *testing.T) {
		u, _ := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)
		u.RecordLoginFailure(1, time.Hour)
		require.True(t, u.IsLocked())

		require.NoError(t, u.Unlock())
		assert.Equal(t, 0, u.FailedAttempts)
		assert.True(t, u.CanLogin())
	})

	t.Run("successful login resets attempts", func(t *testing.T) {
		u, _ := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)
		u.RecordLoginFailure(5, time.Hour)

		u.RecordLoginSuccess("10.0.0.1")

		assert.Equal(t, 0, u.FailedAttempts)
		assert.Equal(t, "10.0.0.1", u.LastLoginIP)
		assert.NotNil(t, u.LastLoginAt)
	})

	t.Run("cannot lock deactivated user", func(t *testing.T) {
		u, _ := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)
		require.NoError(t, u.Deactivate())

		assert.Error(t, u.Lock(time.Hour))
	})
}

func TestUserStatusTransitions(t *testing.T) {
	tenantID := uuid.New()

	t.Run("activate pending user", func(t *testing.T) {
		u, _ := NewUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)

		require.NoError(t, u.Activate())
		assert.True(t, u.IsActive())
		assert.Error(t, u.Activate())
	})

	t.Run("deactivate then reactivate", func(t *testing.T) {
		u, _ := NewActiveUser(tenantID, "jsmith", "j@example.com", "password1", RoleSales)

		require.NoError(t, u.Deactivate())
		assert.True(t, u.IsDeactivated())
		assert.Error(t, u.Deactivate())

		require.NoError(t, u.Activate())
		assert.True(t, u.IsActive())
	})
}

func TestUserSetRole(t *testing.T) {
	u, _ := NewActiveUser(uuid.New(), "jsmith", "j@example.com", "password1", RoleSales)
	u.ClearDomainEvents()

	require.NoError(t, u.SetRole(RoleManager))
	assert.Equal(t, RoleManager, u.Role)
	assert.Len(t, u.GetDomainEvents(), 1)

	// setting the same role is a no-op
	require.NoError(t, u.SetRole(RoleManager))
	assert.Len(t, u.GetDomainEvents(), 1)

	assert.Error(t, u.SetRole(Role("root")))
}

func TestRoleScopes(t *testing.T) {
	tests := []struct {
		role     Role
		scope    DataScope
		canWrite bool
	}{
		{RoleAdmin, DataScopeAll, true},
		{RoleManager, DataScopeAll, true},
		{RoleSales, DataScopeSelf, true},
		{RoleSupport, DataScopeAll, false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.scope, tt.role.Scope())
			assert.Equal(t, tt.canWrite, tt.role.CanWrite())
		})
	}

	assert.True(t, RoleAdmin.CanManageUsers())
	assert.False(t, RoleManager.CanManageUsers())
}
