package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, kid string) Signer {
	t.Helper()

	pemKey, err := GenerateKeyPEM()
	require.NoError(t, err)

	signer, err := NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())

	return signer
}

func TestEdDSA_SignAndVerify(t *testing.T) {
	signer := newTestSigner(t, "test-key-1")

	keys := NewKeySet()
	keys.AddSigner(signer)
	require.True(t, keys.IsReady())

	claims := NewSessionClaims(
		"user-123", "session-abc",
		[]string{"pwd", "otp"},
		time.Hour,
		"authd-test",
		"user@example.com", "testuser",
		time.Now().UTC(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verifier := NewVerifierEdDSA(keys, "authd-test")
	got, err := verifier.Verify(token)
	require.NoError(t, err)

	require.Equal(t, "user-123", got.Subject)
	require.Equal(t, "session-abc", got.SID)
	require.Equal(t, "user@example.com", got.Email)
	require.Equal(t, "testuser", got.Username)
	require.True(t, got.HasAMR("otp"))
	require.False(t, got.HasAMR("bkp"))
}

func TestEdDSA_RejectsUnknownKID(t *testing.T) {
	signer := newTestSigner(t, "key-a")
	other := newTestSigner(t, "key-b")

	keys := NewKeySet()
	keys.AddSigner(other) // signer's key is NOT in the set

	claims := NewSessionClaims("u1", "s1", nil, time.Hour, "authd-test", "", "", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := NewVerifierEdDSA(keys, "authd-test")
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestEdDSA_RejectsWrongIssuer(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	keys := NewKeySet()
	keys.AddSigner(signer)

	claims := NewSessionClaims("u1", "s1", nil, time.Hour, "someone-else", "", "", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := NewVerifierEdDSA(keys, "authd-test")
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestEdDSA_RejectsExpired(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	keys := NewKeySet()
	keys.AddSigner(signer)

	// Issued two hours ago with a one hour TTL
	issued := time.Now().UTC().Add(-2 * time.Hour)
	claims := NewSessionClaims("u1", "s1", nil, time.Hour, "authd-test", "", "", issued)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := NewVerifierEdDSA(keys, "authd-test")
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestEdDSA_RejectsTampered(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	keys := NewKeySet()
	keys.AddSigner(signer)

	claims := NewSessionClaims("u1", "s1", nil, time.Hour, "authd-test", "", "", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"

	verifier := NewVerifierEdDSA(keys, "authd-test")
	_, err = verifier.Verify(tampered)
	require.Error(t, err)
}

func TestClaims_ExpiresWithin(t *testing.T) {
	now := time.Now().UTC()
	claims := NewSessionClaims("u1", "s1", nil, 10*time.Minute, "authd-test", "", "", now)

	require.False(t, claims.ExpiresWithin(5*time.Minute, now))
	require.True(t, claims.ExpiresWithin(15*time.Minute, now))
	require.True(t, claims.ExpiresWithin(5*time.Minute, now.Add(6*time.Minute)))
}

func TestNewSignerEdDSA_RejectsGarbage(t *testing.T) {
	_, err := NewSignerEdDSA("kid", []byte("not a pem"))
	require.Error(t, err)
}
