// Package auth guards the operator routes with bcrypt hashed API keys.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt hashing
const BcryptCost = 10

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(apiKey string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(apiKey), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return string(hashedBytes), nil
}

// KeySet holds the hashes of every operator key allowed in
type KeySet struct {
	hashes [][]byte
}

// NewKeySet validates each hash and returns the set
func NewKeySet(hashes []string) (*KeySet, error) {
	ks := &KeySet{}
	for i, h := range hashes {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("operator key hash %d: %w", i, err)
		}
		ks.hashes = append(ks.hashes, []byte(h))
	}
	return ks, nil
}

// Enabled reports whether any key is configured
func (ks *KeySet) Enabled() bool {
	return ks != nil && len(ks.hashes) > 0
}

// Verify returns nil when apiKey matches one of the hashes
func (ks *KeySet) Verify(apiKey string) error {
	if apiKey == "" {
		return ErrMissingAPIKey
	}
	for _, h := range ks.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(apiKey)) == nil {
			return nil
		}
	}
	return ErrInvalidAPIKey
}
