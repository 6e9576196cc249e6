package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthenticate_AcceptsFreshSession(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newSessionService(t, st)

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	token, err := sessions.IssueAuthSession(ctx, user, []string{"pwd", "otp"}, testMeta)
	require.NoError(t, err)

	result, err := sessions.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)
	require.Equal(t, user.ID, result.Claims.Subject)

	// A full hour remains, nowhere near the rotation threshold.
	require.Empty(t, result.RotatedToken)
}

func TestAuthenticate_RotatesNearExpiry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newSessionService(t, st)

	// Every token is born inside the rotation window.
	sessions.SessionTTL = 2 * time.Minute
	sessions.RotationThreshold = 5 * time.Minute

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	token, err := sessions.IssueAuthSession(ctx, user, []string{"pwd", "otp"}, testMeta)
	require.NoError(t, err)

	result, err := sessions.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NotEmpty(t, result.RotatedToken)
	require.NotEqual(t, token, result.RotatedToken)

	// The replacement works and kept the proof-of-login methods.
	next, err := sessions.Authenticate(ctx, result.RotatedToken)
	require.NoError(t, err)
	require.Equal(t, result.Claims.SID, next.Claims.SID)
	require.True(t, next.Claims.HasAMR("otp"))

	// The old token's session row now carries the new fingerprint.
	_, err = sessions.Authenticate(ctx, token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestAuthenticate_RejectsGarbageAndRevokedTokens(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newSessionService(t, st)

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	t.Run("not a token at all", func(t *testing.T) {
		_, err := sessions.Authenticate(ctx, "not-a-jwt")
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("challenge token is not a bearer credential", func(t *testing.T) {
		challenge, err := sessions.IssueChallenge(ctx, user.ID, testMeta)
		require.NoError(t, err)

		_, err = sessions.Authenticate(ctx, challenge)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("revoked session", func(t *testing.T) {
		token, err := sessions.IssueAuthSession(ctx, user, []string{"pwd", "otp"}, testMeta)
		require.NoError(t, err)

		require.NoError(t, sessions.RevokeAllForUser(ctx, user.ID))

		_, err = sessions.Authenticate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestResolveChallenge_ExpiredTokenRefused(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newSessionService(t, st)
	sessions.ChallengeTTL = -time.Minute // born expired

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	token, err := sessions.IssueChallenge(ctx, user.ID, testMeta)
	require.NoError(t, err)

	_, err = sessions.ResolveChallenge(ctx, token)
	require.ErrorIs(t, err, ErrInvalidChallenge)
}

func TestLogout_DeletesSessionAndToleratesJunk(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newSessionService(t, st)

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	token, err := sessions.IssueAuthSession(ctx, user, []string{"pwd", "otp"}, testMeta)
	require.NoError(t, err)

	sessions.Logout(ctx, token)
	_, err = sessions.Authenticate(ctx, token)
	require.ErrorIs(t, err, ErrInvalidSession)

	// Unknown and empty tokens are silent no-ops.
	sessions.Logout(ctx, "no-such-token")
	sessions.Logout(ctx, "")
}
