package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const (
	tokenValueBytes       = 24
	tokenSecretBytes      = 32
	verificationCodeBytes = 16
)

func generateTokenValue() (string, error) {
	return randomOpaque(tokenValueBytes, "token value")
}

func generateTokenSecret() (string, error) {
	return randomOpaque(tokenSecretBytes, "token secret")
}

func generateVerificationCode() (string, error) {
	return randomOpaque(verificationCodeBytes, "verification code")
}

func generateConsumerSecret() (string, error) {
	return randomOpaque(tokenSecretBytes, "consumer secret")
}

func randomOpaque(size int, label string) (string, error) {
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate %s: %w", label, err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// verificationCodeEqual compares through fixed-size digests so neither
// content nor length leaks through timing.
func verificationCodeEqual(stored, supplied string) bool {
	if stored == "" || supplied == "" {
		return false
	}
	storedSum := sha256.Sum256([]byte(stored))
	suppliedSum := sha256.Sum256([]byte(supplied))
	return subtle.ConstantTimeCompare(storedSum[:], suppliedSum[:]) == 1
}
