package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/showcase/pkg/models"
)

// DefaultCost is the bcrypt work factor for admin passwords.
const DefaultCost = 12

// MinPasswordLength is the shortest accepted admin password.
const MinPasswordLength = 8

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
var ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher; a cost outside bcrypt's range falls back to
// DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the salted bcrypt hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	if utf8.RuneCountInString(plain) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether plain matches hash. A malformed hash is an error,
// a mismatch is not.
func (h *Hasher) Compare(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

// SetPassword replaces the stored hash of u. It is the only way a password
// reaches an AdminUser, so other updates never rehash.
func (h *Hasher) SetPassword(u *models.AdminUser, plain string) error {
	hash, err := h.Hash(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}
