package service

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/store"
	"github.com/micrositio/authd/pkg/cryptox"
	"github.com/micrositio/authd/pkg/idx"
	"github.com/micrositio/authd/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10 // codes issued per credential
	backupCodeHex   = 8  // hex chars per code (32 bits of entropy)
	totpSecretSize  = 20 // bytes, 160-bit secret
	totpPeriod      = 30 // seconds per step
	qrImageSize     = 256
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyConfigured = errors.New("two-factor authentication already enabled")
	ErrNotConfigured     = errors.New("two-factor authentication not configured")
	ErrInvalidCode       = errors.New("invalid verification code")
)

// MFAService owns the TOTP credential lifecycle: setup (with its designed-for
// concurrent-duplicate race), verification, and the enable-on-first-success
// transition that activates the account's second factor.
type MFAService struct {
	Store    store.Store
	Sessions *SessionService

	// Issuer appears in the authenticator app next to the account label.
	Issuer string

	// SkewSteps is how many 30s steps either side of now a code may come
	// from. Each extra step roughly doubles the guessable code space, so
	// the default is 1.
	SkewSteps uint
}

// Setup creates or reuses the TOTP credential for an account. Identified by
// userID (fresh registration) or a challenge token (returning user).
//
// Backup codes are returned in plaintext exactly once, on first creation.
// Every later call, including the loser of a concurrent-setup race, gets the
// same QR artifact and an empty backup-code list.
func (s *MFAService) Setup(ctx context.Context, userID, challengeToken string) (domain.TwoFactorSetup, error) {
	l := slogx.FromContext(ctx)

	user, _, err := s.resolveAccount(ctx, userID, challengeToken)
	if err != nil {
		return domain.TwoFactorSetup{}, err
	}

	tf, err := s.Store.TwoFactor().GetByUserID(ctx, user.ID)
	switch {
	case err == nil && tf.Enabled:
		return domain.TwoFactorSetup{}, ErrAlreadyConfigured

	case err == nil:
		// Pending credential: same secret, same QR, no new backup codes.
		// The originals were handed out hashed and cannot be re-shown.
		return s.buildSetup(user, tf.SecretKey, []string{})

	case !errors.Is(err, store.ErrNotFound):
		return domain.TwoFactorSetup{}, fmt.Errorf("lookup 2fa credential: %w", err)
	}

	// No credential yet: mint a fresh secret and backup codes.
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		SecretSize:  totpSecretSize,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TwoFactorSetup{}, fmt.Errorf("generate totp secret: %w", err)
	}

	backupCodes := make([]string, backupCodeCount)
	for i := range backupCodes {
		code, err := cryptox.GenerateHexCode(backupCodeHex)
		if err != nil {
			return domain.TwoFactorSetup{}, fmt.Errorf("generate backup code: %w", err)
		}
		backupCodes[i] = code
	}

	now := time.Now().UTC()
	credential := domain.TwoFactor{
		ID:        idx.New().String(),
		UserID:    user.ID,
		SecretKey: key.Secret(),
		Enabled:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.TwoFactor().Create(ctx, credential); err != nil {
			return err
		}
		for _, code := range backupCodes {
			if err := tx.BackupCodes().Create(ctx, user.ID, cryptox.FingerprintToken(code)); err != nil {
				return fmt.Errorf("store backup code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A concurrent setup call inserted first. That caller got the
			// backup codes; this one reuses the winning secret.
			l.Info("concurrent 2fa setup detected, reusing existing credential", "user_id", user.ID)
			existing, readErr := s.Store.TwoFactor().GetByUserID(ctx, user.ID)
			if readErr != nil {
				return domain.TwoFactorSetup{}, fmt.Errorf("re-read 2fa credential: %w", readErr)
			}
			if existing.Enabled {
				return domain.TwoFactorSetup{}, ErrAlreadyConfigured
			}
			return s.buildSetup(user, existing.SecretKey, []string{})
		}
		return domain.TwoFactorSetup{}, fmt.Errorf("create 2fa credential: %w", err)
	}

	l.Info("2fa credential created", "user_id", user.ID)
	return s.buildSetup(user, credential.SecretKey, backupCodes)
}

// VerifyInput carries the second-factor proof: exactly one of TOTPCode or
// BackupCode, plus one of UserID or ChallengeToken to name the account.
type VerifyInput struct {
	UserID         string
	ChallengeToken string
	TOTPCode       string
	BackupCode     string
}

// VerifyResult is the issued bearer credential and a safe user projection.
type VerifyResult struct {
	Token string
	User  domain.SafeUser
}

// Verify validates the second factor and, on success, enables the credential
// (first time only), issues the authenticated session, and retires the
// challenge token that got the caller here.
func (s *MFAService) Verify(ctx context.Context, in VerifyInput, meta domain.RequestMeta) (VerifyResult, error) {
	l := slogx.FromContext(ctx)

	if in.TOTPCode == "" && in.BackupCode == "" {
		return VerifyResult{}, &ValidationError{Violations: []string{"a TOTP code or backup code is required"}}
	}

	user, challenge, err := s.resolveAccount(ctx, in.UserID, in.ChallengeToken)
	if err != nil {
		return VerifyResult{}, err
	}

	tf, err := s.Store.TwoFactor().GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return VerifyResult{}, ErrNotConfigured
		}
		return VerifyResult{}, fmt.Errorf("lookup 2fa credential: %w", err)
	}

	amr := []string{"pwd"}
	switch {
	case in.TOTPCode != "":
		valid, err := totp.ValidateCustom(in.TOTPCode, tf.SecretKey, time.Now().UTC(), totp.ValidateOpts{
			Period:    totpPeriod,
			Skew:      s.SkewSteps,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil || !valid {
			l.Info("2fa verification failed: bad totp code", "user_id", user.ID, "ip", meta.IPAddress)
			return VerifyResult{}, ErrInvalidCode
		}
		amr = append(amr, "otp")

	default:
		// Backup codes only work once the credential is live; a pending
		// setup must be completed with a real TOTP code first.
		if !tf.Enabled {
			return VerifyResult{}, ErrInvalidCode
		}
		consumed, err := s.Store.BackupCodes().Consume(ctx, user.ID, cryptox.FingerprintToken(in.BackupCode))
		if err != nil {
			return VerifyResult{}, fmt.Errorf("consume backup code: %w", err)
		}
		if !consumed {
			l.Info("2fa verification failed: bad backup code", "user_id", user.ID, "ip", meta.IPAddress)
			return VerifyResult{}, ErrInvalidCode
		}
		amr = append(amr, "bkp")
	}

	// First successful verification flips the credential live.
	if !tf.Enabled {
		if err := s.Store.TwoFactor().Enable(ctx, tf.ID); err != nil {
			return VerifyResult{}, fmt.Errorf("enable 2fa credential: %w", err)
		}
	}

	token, err := s.Sessions.IssueAuthSession(ctx, user, amr, meta)
	if err != nil {
		return VerifyResult{}, err
	}

	// Challenge tokens are single-use. A failed delete is logged, not fatal;
	// the row expires on its own shortly anyway.
	if challenge != nil {
		if err := s.Store.Sessions().DeleteByID(ctx, challenge.ID); err != nil {
			l.Warn("failed to delete used challenge session", "session_id", challenge.ID, "error", err)
		}
	}

	l.Info("2fa verification succeeded", "user_id", user.ID)
	return VerifyResult{Token: token, User: user.Safe()}, nil
}

// resolveAccount names the account either directly by id or through a live
// challenge token. The returned session is non-nil only on the token path.
func (s *MFAService) resolveAccount(ctx context.Context, userID, challengeToken string) (domain.User, *domain.Session, error) {
	switch {
	case userID != "":
		user, err := s.Store.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.User{}, nil, ErrUserNotFound
			}
			return domain.User{}, nil, fmt.Errorf("load user: %w", err)
		}
		return user, nil, nil

	case challengeToken != "":
		session, err := s.Sessions.ResolveChallenge(ctx, challengeToken)
		if err != nil {
			return domain.User{}, nil, err
		}
		user, err := s.Store.Users().GetByID(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.User{}, nil, ErrUserNotFound
			}
			return domain.User{}, nil, fmt.Errorf("load user: %w", err)
		}
		return user, &session, nil

	default:
		return domain.User{}, nil, &ValidationError{Violations: []string{"a user id or challenge token is required"}}
	}
}

// buildSetup rebuilds the provisioning artifacts from a base32 secret. The
// QR is a PNG data URL so clients can drop it straight into an <img> tag.
func (s *MFAService) buildSetup(user domain.User, secret string, backupCodes []string) (domain.TwoFactorSetup, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return domain.TwoFactorSetup{}, fmt.Errorf("decode totp secret: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Secret:      raw,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TwoFactorSetup{}, fmt.Errorf("rebuild totp key: %w", err)
	}

	img, err := key.Image(qrImageSize, qrImageSize)
	if err != nil {
		return domain.TwoFactorSetup{}, fmt.Errorf("render qr image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.TwoFactorSetup{}, fmt.Errorf("encode qr png: %w", err)
	}

	return domain.TwoFactorSetup{
		QR:          "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		OtpauthURL:  key.URL(),
		BackupCodes: backupCodes,
	}, nil
}
