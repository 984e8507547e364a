package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of plain at the given cost.
func HashPassword(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password longer than 72 bytes", common.ErrorValidation)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares plain against a stored bcrypt hash. A mismatch,
// a malformed hash and any other bcrypt failure all yield
// common.ErrorUnauthorized.
func VerifyPassword(plain, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return common.ErrorUnauthorized
	}
	return nil
}

// Hasher binds the password helpers to a configured cost and keeps a dummy
// hash of the same cost for comparisons against unknown accounts.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

func NewHasher(cost int) *Hasher {
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	return HashPassword(plain, h.cost)
}

func (h *Hasher) Verify(plain, hash string) error {
	return VerifyPassword(plain, hash)
}

// VerifyUnknown spends one bcrypt comparison and always fails. It is used
// when the username does not exist so the response takes as long as a
// wrong password would.
func (h *Hasher) VerifyUnknown(plain string) error {
	h.dummyOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte("authkeeper-dummy-password"), h.cost)
		if err == nil {
			h.dummy = string(b)
		}
	})
	_ = bcrypt.CompareHashAndPassword([]byte(h.dummy), []byte(plain))
	return common.ErrorUnauthorized
}
