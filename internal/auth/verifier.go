// Package auth covers credentials, the login state machine, and PIN
// authorization for risk-bearing ledger operations.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier hashes secrets into opaque handles and verifies
// candidates against them. Passwords and PINs share the same capability.
type CredentialVerifier interface {
	Hash(secret string) (string, error)
	Verify(secret string, handle string) bool
}

// BcryptVerifier implements CredentialVerifier with bcrypt.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier returns a verifier at the default bcrypt cost.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{cost: bcrypt.DefaultCost}
}

// NewBcryptVerifierWithCost returns a verifier at an explicit cost. Tests
// use bcrypt.MinCost to stay fast.
func NewBcryptVerifierWithCost(cost int) *BcryptVerifier {
	return &BcryptVerifier{cost: cost}
}

// Hash derives a handle from the secret.
func (verifier *BcryptVerifier) Hash(secret string) (string, error) {
	handle, err := bcrypt.GenerateFromPassword([]byte(secret), verifier.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(handle), nil
}

// Verify reports whether the secret matches the handle.
func (verifier *BcryptVerifier) Verify(secret string, handle string) bool {
	return bcrypt.CompareHashAndPassword([]byte(handle), []byte(secret)) == nil
}
