package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sackofdump/pcompass/internal/auth/domain"
)

// hmacSigner implements Signer using HMAC-SHA-256 with hex-encoded output.
type hmacSigner struct{}

// NewSigner creates a new HMAC-SHA-256 token signer.
func NewSigner() Signer {
	return &hmacSigner{}
}

// Sign returns the hex-encoded HMAC-SHA-256 of message under secret.
func (s *hmacSigner) Sign(secret, message string) (string, error) {
	if secret == "" {
		return "", domain.ErrSecretNotConfigured
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether signature matches message under secret.
//
// The comparison must not reveal through timing where the first mismatching
// byte occurs, so both sides are reduced to raw MAC bytes and compared with
// hmac.Equal. A signature that is not valid hex is compared against itself
// first to keep the work per call flat, then rejected.
func (s *hmacSigner) Verify(signature, secret, message string) bool {
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		hmac.Equal(expected, expected)
		return false
	}

	return hmac.Equal(provided, expected)
}
