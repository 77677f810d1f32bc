package helpers

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedHash is returned when a stored value is not a usable bcrypt hash.
var ErrMalformedHash = errors.New("malformed password hash")

// PasswordHasher hashes and verifies passwords with a tunable bcrypt cost.
type PasswordHasher struct {
	Cost int
}

// NewPasswordHasher clamps cost into bcrypt's accepted range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{Cost: cost}
}

// bcrypt only reads the first 72 bytes of its input.
const bcryptMaxInput = 72

// secretBytes returns what bcrypt sees for plain. Secrets longer than bcrypt
// accepts are reduced to a base64 SHA-256 digest so every byte counts.
func secretBytes(plain string) []byte {
	if len(plain) <= bcryptMaxInput {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Hash returns a salted bcrypt hash of plain. Each call yields a different value.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(secretBytes(plain), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plain matches hash. A mismatch is not an error;
// an unparsable hash is ErrMalformedHash.
func (h *PasswordHasher) Verify(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), secretBytes(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}
