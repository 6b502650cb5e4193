// Package password hashes and verifies user passwords.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = errors.New("password mismatch")

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

// Bcrypt hashes passwords with a per-hash random salt.
type Bcrypt struct {
	cost      int
	dummyHash []byte
}

// NewBcrypt creates a hasher with the given cost. Out-of-range costs fall
// back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Fixed input, only used to spend comparable time on unknown users.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("gophchat-dummy-password"), cost)
	return &Bcrypt{cost: cost, dummyHash: dummy}
}

// Hash returns the bcrypt hash of plain.
func (b *Bcrypt) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare checks plain against hash and returns ErrMismatch on mismatch.
func (b *Bcrypt) Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	return nil
}

// CompareDummy burns one comparison against a fixed hash.
func (b *Bcrypt) CompareDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(b.dummyHash, []byte(plain))
}
