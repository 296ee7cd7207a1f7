package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"

	"gocloud.dev/secrets"
	"golang.org/x/crypto/hkdf"

	"github.com/sackofdump/pcompass/internal/auth/domain"
	"github.com/sackofdump/pcompass/internal/config"
	apperrors "github.com/sackofdump/pcompass/internal/errors"

	// Register KMS provider drivers for secrets.OpenKeeper
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// secretSource implements SecretSource from process configuration.
//
// Resolution order per secret:
//  1. Direct env value (AUTH_TOKEN_SECRET / PRO_TOKEN_SECRET). When KMS_KEY_URI
//     is set these values are base64 KMS ciphertext and are unwrapped through a
//     gocloud.dev secrets.Keeper (gcpkms://, awskms://, azurekeyvault://,
//     hashivault://, base64key://).
//  2. HKDF-SHA256 derivation from TOKEN_MASTER_SECRET with a per-purpose info
//     string, keeping the two-secret isolation intact.
//  3. Failure: domain.ErrSecretNotConfigured.
type secretSource struct {
	cfg *config.Config
}

// NewSecretSource creates a SecretSource for the given configuration.
func NewSecretSource(cfg *config.Config) SecretSource {
	return &secretSource{cfg: cfg}
}

// Resolve returns the auth and pro signing secrets.
func (s *secretSource) Resolve(ctx context.Context) (string, string, error) {
	authSecret := s.cfg.AuthTokenSecret
	proSecret := s.cfg.ProTokenSecret

	if s.cfg.KMSKeyURI != "" {
		keeper, err := secrets.OpenKeeper(ctx, s.cfg.KMSKeyURI)
		if err != nil {
			return "", "", apperrors.Wrap(err, "failed to open KMS keeper")
		}
		defer keeper.Close()

		if authSecret, err = unwrap(ctx, keeper, authSecret); err != nil {
			return "", "", apperrors.Wrap(err, "failed to unwrap auth token secret")
		}
		if proSecret, err = unwrap(ctx, keeper, proSecret); err != nil {
			return "", "", apperrors.Wrap(err, "failed to unwrap pro token secret")
		}
	}

	if authSecret == "" && s.cfg.TokenMasterSecret != "" {
		derived, err := deriveSecret(s.cfg.TokenMasterSecret, "auth-token-signing-v1")
		if err != nil {
			return "", "", err
		}
		authSecret = derived
	}

	if proSecret == "" && s.cfg.TokenMasterSecret != "" {
		derived, err := deriveSecret(s.cfg.TokenMasterSecret, "pro-token-signing-v1")
		if err != nil {
			return "", "", err
		}
		proSecret = derived
	}

	if authSecret == "" || proSecret == "" {
		return "", "", domain.ErrSecretNotConfigured
	}

	return authSecret, proSecret, nil
}

// unwrap decrypts a base64 KMS ciphertext through the keeper.
// An empty value passes through so derivation can still apply.
func unwrap(ctx context.Context, keeper *secrets.Keeper, value string) (string, error) {
	if value == "" {
		return "", nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", apperrors.Wrap(err, "secret is not valid base64 ciphertext")
	}

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// deriveSecret derives a 32-byte signing secret from the master secret using
// HKDF-SHA256 with a purpose-scoped info string, hex-encoded.
func deriveSecret(masterSecret, info string) (string, error) {
	reader := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte(info))

	derived := make([]byte, 32)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return "", apperrors.Wrap(err, "failed to derive signing secret")
	}

	return hex.EncodeToString(derived), nil
}
