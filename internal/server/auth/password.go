package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/schoolauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher verifies plaintext passwords against bcrypt hashes. The
// cost of a stored hash is read from the hash itself, so hashes created at
// any cost verify; cost only applies to new hashes.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher validates cost (0 means bcrypt.DefaultCost) and
// prepares a dummy hash at that cost for unknown-user comparisons.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]",
			common.ErrInvalidConfig, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(seed)), cost)
	if err != nil {
		return nil, err
	}

	return &PasswordHasher{cost: cost, dummyHash: dummy}, nil
}

func (h *PasswordHasher) Cost() int { return h.cost }

// Hash returns a new bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches hashedPassword. Malformed hashes
// never match.
func (h *PasswordHasher) Verify(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// VerifyMissing spends the same work as Verify for a user that does not
// exist, so response timing does not reveal which usernames are taken.
func (h *PasswordHasher) VerifyMissing(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
