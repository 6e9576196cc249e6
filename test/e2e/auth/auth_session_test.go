package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := newAPIClient(baseURL)
	_, _, _, token := onboardAlice(t, client)

	t.Run("me requires a bearer token", func(t *testing.T) {
		resp := client.get(t, "/api/auth/me", "")
		require.Equal(t, http.StatusUnauthorized, resp.Status)

		resp = client.get(t, "/api/auth/me", "garbage-token")
		require.Equal(t, http.StatusUnauthorized, resp.Status)
	})

	t.Run("refresh always answers 401", func(t *testing.T) {
		resp := client.post(t, "/api/auth/refresh", nil, "")
		require.Equal(t, http.StatusUnauthorized, resp.Status)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		resp := client.post(t, "/api/auth/logout", nil, token)
		require.Equal(t, http.StatusOK, resp.Status)

		resp = client.get(t, "/api/auth/me", token)
		require.Equal(t, http.StatusUnauthorized, resp.Status)
	})

	t.Run("logout without a token still succeeds", func(t *testing.T) {
		resp := client.post(t, "/api/auth/logout", nil, "")
		require.Equal(t, http.StatusOK, resp.Status)
	})
}

func TestForgotPasswordNeverLeaksAccounts(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := newAPIClient(baseURL)
	registerAlice(t, client)

	known := client.post(t, "/api/auth/forgot-password", map[string]any{"email": aliceEmail}, "")
	unknown := client.post(t, "/api/auth/forgot-password", map[string]any{"email": "nobody@micrositio.example"}, "")

	// Same status and same generic body for hits and misses.
	require.Equal(t, http.StatusOK, known.Status)
	require.Equal(t, http.StatusOK, unknown.Status)
	require.Equal(t, known.Body["message"], unknown.Body["message"])
}
