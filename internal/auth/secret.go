// Package auth handles group join secrets and signed invite tokens.
package auth

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidSecret = errors.New("invalid join secret")
	ErrBadSecretForm = errors.New("join secret may contain only latin letters, digits and underscore")
)

var secretPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateSecret checks the join secret's allowed character set.
func ValidateSecret(secret string) error {
	if !secretPattern.MatchString(secret) {
		return ErrBadSecretForm
	}
	return nil
}

// HashSecret validates and bcrypt-hashes a group join secret for storage.
func HashSecret(secret string) (string, error) {
	if err := ValidateSecret(secret); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// CheckSecret compares a candidate secret against the stored hash.
func CheckSecret(hash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return ErrInvalidSecret
	}
	return nil
}
