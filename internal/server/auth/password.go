package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/affinity/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher prepares a Hasher for cost. A dummy hash at the same cost is
// computed up front so that CompareDummy takes as long as a real comparison.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]",
			common.ErrorValidation, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(common.DummyPasswordBytes), cost)
	if err != nil {
		return nil, err
	}

	return &Hasher{cost: cost, dummy: dummy}, nil
}

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(password string) ([]byte, error) {
	if len(password) > MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, MaxPasswordBytes)
	}
	return bcrypt.GenerateFromPassword([]byte(password), h.cost)
}

// Compare returns common.ErrorUnauthorized when password does not match hash.
func (h *Hasher) Compare(hash []byte, password string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return common.ErrorUnauthorized
	default:
		return fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
}

// CompareDummy burns the same effort as Compare and always fails.
func (h *Hasher) CompareDummy(password string) error {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	return common.ErrorUnauthorized
}
