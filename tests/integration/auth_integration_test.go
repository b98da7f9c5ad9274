package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_SignupAndLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	server := NewTestServer(t)
	server.Signup(t, "acme", "admin", "admin@acme.test", "S3cure-Pass-1")

	t.Run("login succeeds with valid credentials", func(t *testing.T) {
		tokens := server.Login(t, "acme", "admin", "S3cure-Pass-1")

		var me struct {
			Username string `json:"username"`
			Role     string `json:"role"`
			Status   string `json:"status"`
		}
		w := server.Do(t, http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		DecodeData(t, w, &me)
		assert.Equal(t, "admin", me.Username)
		assert.Equal(t, "admin", me.Role)
		assert.Equal(t, "active", me.Status)
	})

	t.Run("login fails with wrong password", func(t *testing.T) {
		w := server.Do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"tenant_code": "acme",
			"username":    "admin",
			"password":    "wrong-password-1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("login fails with unknown tenant", func(t *testing.T) {
		w := server.Do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"tenant_code": "nosuch",
			"username":    "admin",
			"password":    "S3cure-Pass-1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("duplicate tenant code is rejected", func(t *testing.T) {
		w := server.Do(t, http.MethodPost, "/api/v1/tenants", "", map[string]interface{}{
			"code":           "acme",
			"name":           "Duplicate",
			"admin_username": "other",
			"admin_email":    "other@acme.test",
			"admin_password": "S3cure-Pass-1",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuth_TokenRefresh(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	server := NewTestServer(t)
	server.Signup(t, "acme", "admin", "admin@acme.test", "S3cure-Pass-1")
	tokens := server.Login(t, "acme", "admin", "S3cure-Pass-1")

	t.Run("refresh issues a new token pair", func(t *testing.T) {
		w := server.Do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": tokens.RefreshToken,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var refreshed LoginTokens
		DecodeData(t, w, &refreshed)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.NotEmpty(t, refreshed.RefreshToken)

		// The new access token must be usable
		w = server.Do(t, http.MethodGet, "/api/v1/auth/me", refreshed.AccessToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("refresh rejects garbage tokens", func(t *testing.T) {
		w := server.Do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": "not-a-real-token",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("access token is not accepted as refresh token", func(t *testing.T) {
		w := server.Do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": tokens.AccessToken,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuth_Logout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	server := NewTestServer(t)
	server.Signup(t, "acme", "admin", "admin@acme.test", "S3cure-Pass-1")
	tokens := server.Login(t, "acme", "admin", "S3cure-Pass-1")

	w := server.Do(t, http.MethodPost, "/api/v1/auth/logout", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The revoked token must no longer pass the middleware
	w = server.Do(t, http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_AccountLockout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	server := NewTestServer(t)
	server.Signup(t, "acme", "admin", "admin@acme.test", "S3cure-Pass-1")

	for i := 0; i < 5; i++ {
		w := server.Do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"tenant_code": "acme",
			"username":    "admin",
			"password":    "wrong-password-1",
		})
		require.NotEqual(t, http.StatusOK, w.Code)
	}

	// The lockout applies even with the correct password
	w := server.Do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"tenant_code": "acme",
		"username":    "admin",
		"password":    "S3cure-Pass-1",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_ACCOUNT_LOCKED")
}

func TestAuth_ChangePasswordInvalidatesSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	server := NewTestServer(t)
	server.Signup(t, "acme", "admin", "admin@acme.test", "S3cure-Pass-1")
	tokens := server.Login(t, "acme", "admin", "S3cure-Pass-1")

	w := server.Do(t, http.MethodPost, "/api/v1/auth/change-password", tokens.AccessToken, map[string]string{
		"old_password": "S3cure-Pass-1",
		"new_password": "N3w-Secure-Pass-2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old password no longer works, new one does
	w = server.Do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"tenant_code": "acme",
		"username":    "admin",
		"password":    "S3cure-Pass-1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	server.Login(t, "acme", "admin", "N3w-Secure-Pass-2")
}
