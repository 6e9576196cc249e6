package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRegistration covers the allowlist gate end to end: a seeded matricula
// registers once, everything else is refused with the right status.
func TestRegistration(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := newAPIClient(baseURL)

	t.Run("allowlisted matricula registers", func(t *testing.T) {
		userID := registerAlice(t, client)
		require.NotEmpty(t, userID)
	})

	t.Run("second registration for the same matricula conflicts", func(t *testing.T) {
		resp := client.post(t, "/api/auth/register", map[string]any{
			"matricula":       aliceMatricula,
			"username":        "alice-again",
			"password":        alicePassword,
			"confirmPassword": alicePassword,
			"acceptTerms":     true,
		}, "")
		require.Equal(t, http.StatusConflict, resp.Status)
	})

	t.Run("taken username conflicts", func(t *testing.T) {
		resp := client.post(t, "/api/auth/register", map[string]any{
			"matricula":       bobMatricula,
			"username":        "alice",
			"password":        alicePassword,
			"confirmPassword": alicePassword,
			"acceptTerms":     true,
		}, "")
		require.Equal(t, http.StatusConflict, resp.Status)
	})

	t.Run("unlisted matricula is forbidden", func(t *testing.T) {
		resp := client.post(t, "/api/auth/register", map[string]any{
			"matricula":       "ZZ99999999999",
			"username":        "mallory",
			"password":        alicePassword,
			"confirmPassword": alicePassword,
			"acceptTerms":     true,
		}, "")
		require.Equal(t, http.StatusForbidden, resp.Status)
	})

	t.Run("validation failures are reported together", func(t *testing.T) {
		resp := client.post(t, "/api/auth/register", map[string]any{
			"matricula":       "nope",
			"username":        "xy",
			"password":        "weak",
			"confirmPassword": "other",
			"acceptTerms":     false,
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.Status)

		details, ok := resp.Body["details"].([]any)
		require.True(t, ok, "body: %v", resp.Body)
		require.GreaterOrEqual(t, len(details), 5)
	})
}
