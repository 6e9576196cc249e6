package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/micrositio/authd/pkg/jwtx"
)

// signingKeyID is the kid carried in token headers. One active key at a
// time; rotation means replacing the PEM file and restarting.
const signingKeyID = "authd-ed25519"

// InitSigningKeys loads the Ed25519 signing key from disk, generating and
// persisting a fresh one on first boot. Returns the signer and the KeySet
// used for verification.
func InitSigningKeys(cfg Config, logger *slog.Logger) (jwtx.Signer, *jwtx.KeySet, error) {
	pemKey, err := os.ReadFile(cfg.SigningKey)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("signing key not found, generating", "path", cfg.SigningKey)

		pemKey, err = jwtx.GenerateKeyPEM()
		if err != nil {
			return nil, nil, fmt.Errorf("generate signing key: %w", err)
		}
		if err := os.WriteFile(cfg.SigningKey, pemKey, 0o600); err != nil {
			return nil, nil, fmt.Errorf("persist signing key: %w", err)
		}
	} else if err != nil {
		return nil, nil, fmt.Errorf("read signing key: %w", err)
	}

	signer, err := jwtx.NewSignerEdDSA(signingKeyID, pemKey)
	if err != nil {
		return nil, nil, fmt.Errorf("load signing key: %w", err)
	}
	if err := signer.Validate(); err != nil {
		return nil, nil, err
	}

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)

	logger.Info("signing key loaded", "kid", signingKeyID, "alg", signer.Alg())
	return signer, keys, nil
}
