package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	server := NewTestServer(t)
	server.Signup(t, "acme", "admin", "admin@acme.test", "S3cure-Pass-1")
	server.Signup(t, "globex", "admin", "admin@globex.test", "S3cure-Pass-1")

	acme := server.Login(t, "acme", "admin", "S3cure-Pass-1")
	globex := server.Login(t, "globex", "admin", "S3cure-Pass-1")

	acmeContact := createContact(t, server, acme.AccessToken, "lovelace")

	t.Run("records are invisible across tenants", func(t *testing.T) {
		w := server.Do(t, http.MethodGet, "/api/v1/contacts/"+acmeContact.ID, globex.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = server.Do(t, http.MethodGet, "/api/v1/contacts", globex.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var contacts []contactPayload
		DecodeData(t, w, &contacts)
		assert.Empty(t, contacts)
	})

	t.Run("mutations across tenants are rejected", func(t *testing.T) {
		w := server.Do(t, http.MethodDelete, "/api/v1/contacts/"+acmeContact.ID, globex.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		// The record is untouched for its own tenant
		w = server.Do(t, http.MethodGet, "/api/v1/contacts/"+acmeContact.ID, acme.AccessToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("same username can exist in both tenants", func(t *testing.T) {
		// Both tenants signed up with an "admin" user; each logs into its own
		var me struct {
			TenantID string `json:"tenant_id"`
		}
		w := server.Do(t, http.MethodGet, "/api/v1/auth/me", acme.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		DecodeData(t, w, &me)
		acmeTenant := me.TenantID

		w = server.Do(t, http.MethodGet, "/api/v1/auth/me", globex.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		DecodeData(t, w, &me)
		assert.NotEqual(t, acmeTenant, me.TenantID)
	})
}

func TestDataScopeByRole(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	server := NewTestServer(t)
	server.Signup(t, "acme", "admin", "admin@acme.test", "S3cure-Pass-1")
	admin := server.Login(t, "acme", "admin", "S3cure-Pass-1")

	// Provision one sales rep and one support user
	for _, u := range []struct{ username, role string }{
		{"rep", "sales"},
		{"helpdesk", "support"},
	} {
		w := server.Do(t, http.MethodPost, "/api/v1/users", admin.AccessToken, map[string]interface{}{
			"username": u.username,
			"email":    u.username + "@acme.test",
			"password": "S3cure-Pass-1",
			"role":     u.role,
			"activate": true,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	rep := server.Login(t, "acme", "rep", "S3cure-Pass-1")
	helpdesk := server.Login(t, "acme", "helpdesk", "S3cure-Pass-1")

	adminContact := createContact(t, server, admin.AccessToken, "lovelace")
	repContact := createContact(t, server, rep.AccessToken, "hopper")

	t.Run("sales reps only see records they own", func(t *testing.T) {
		w := server.Do(t, http.MethodGet, "/api/v1/contacts", rep.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var contacts []contactPayload
		DecodeData(t, w, &contacts)
		require.Len(t, contacts, 1)
		assert.Equal(t, repContact.ID, contacts[0].ID)

		w = server.Do(t, http.MethodGet, "/api/v1/contacts/"+adminContact.ID, rep.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("owner filter cannot widen a sales rep scope", func(t *testing.T) {
		w := server.Do(t, http.MethodGet, "/api/v1/contacts?owner_id=", rep.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var contacts []contactPayload
		DecodeData(t, w, &contacts)
		require.Len(t, contacts, 1)
		assert.Equal(t, repContact.ID, contacts[0].ID)
	})

	t.Run("admins see everything in the tenant", func(t *testing.T) {
		w := server.Do(t, http.MethodGet, "/api/v1/contacts", admin.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var contacts []contactPayload
		DecodeData(t, w, &contacts)
		assert.Len(t, contacts, 2)
	})

	t.Run("support role is read-only", func(t *testing.T) {
		w := server.Do(t, http.MethodGet, "/api/v1/contacts", helpdesk.AccessToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = server.Do(t, http.MethodPost, "/api/v1/contacts", helpdesk.AccessToken, map[string]interface{}{
			"last_name": "turing",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("user management is closed to non-admins", func(t *testing.T) {
		w := server.Do(t, http.MethodGet, "/api/v1/users", rep.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
