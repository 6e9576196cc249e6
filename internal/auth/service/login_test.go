package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogin_PasswordAcceptedIssuesChallenge(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newSessionService(t, st)

	svc := &LoginService{
		Store:            st,
		Sessions:         sessions,
		LockoutThreshold: 5,
		LockoutWindow:    15 * time.Minute,
	}

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	result, err := svc.Login(ctx, "alice@micrositio.example", "Sup3rSecretPwd", testMeta)
	require.NoError(t, err)
	require.NotEmpty(t, result.TempToken)

	// No 2FA credential yet, so the client is sent to setup.
	require.True(t, result.RequiresSetup)
	require.False(t, result.TwoFactorSet)

	// The temp token resolves to a live challenge session for the user.
	session, err := sessions.ResolveChallenge(ctx, result.TempToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, session.UserID)
}

func TestLogin_UsernameWorksAsIdentifier(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	svc := &LoginService{
		Store:            st,
		Sessions:         newSessionService(t, st),
		LockoutThreshold: 5,
		LockoutWindow:    15 * time.Minute,
	}

	seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	result, err := svc.Login(ctx, "alice", "Sup3rSecretPwd", testMeta)
	require.NoError(t, err)
	require.NotEmpty(t, result.TempToken)
}

func TestLogin_UnknownIdentifierLooksLikeBadPassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	svc := &LoginService{
		Store:            st,
		Sessions:         newSessionService(t, st),
		LockoutThreshold: 5,
		LockoutWindow:    15 * time.Minute,
	}

	_, err := svc.Login(ctx, "nobody@micrositio.example", "whatever", testMeta)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_LocksAfterThresholdFailures(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	svc := &LoginService{
		Store:            st,
		Sessions:         newSessionService(t, st),
		LockoutThreshold: 5,
		LockoutWindow:    15 * time.Minute,
	}

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, "alice@micrositio.example", "wrong-password", testMeta)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored, err := st.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.FailedLogins)
	require.NotNil(t, stored.LockedUntil)
	require.True(t, stored.LockedUntil.After(time.Now().UTC()))

	// Even the correct password is refused while the lock holds.
	_, err = svc.Login(ctx, "alice@micrositio.example", "Sup3rSecretPwd", testMeta)
	require.ErrorIs(t, err, ErrAccountLocked)
}

func TestLogin_SuccessClearsFailureCounter(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	svc := &LoginService{
		Store:            st,
		Sessions:         newSessionService(t, st),
		LockoutThreshold: 5,
		LockoutWindow:    15 * time.Minute,
	}

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, "alice@micrositio.example", "wrong-password", testMeta)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, "alice@micrositio.example", "Sup3rSecretPwd", testMeta)
	require.NoError(t, err)

	stored, err := st.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, stored.FailedLogins)
	require.Nil(t, stored.LockedUntil)
}

func TestLogin_ReportsEnabledCredential(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newSessionService(t, st)

	login := &LoginService{
		Store:            st,
		Sessions:         sessions,
		LockoutThreshold: 5,
		LockoutWindow:    15 * time.Minute,
	}
	mfa := &MFAService{Store: st, Sessions: sessions, Issuer: "Micrositio", SkewSteps: 1}

	user := seedUser(t, st, "alice@micrositio.example", "alice", "AB12345678901", "Sup3rSecretPwd")
	enableTwoFactor(t, st, mfa, user.ID)

	result, err := login.Login(ctx, "alice@micrositio.example", "Sup3rSecretPwd", testMeta)
	require.NoError(t, err)
	require.True(t, result.TwoFactorSet)
	require.False(t, result.RequiresSetup)
}
