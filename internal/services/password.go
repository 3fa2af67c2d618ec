package services

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces and checks one-way salted digests of user secrets.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	// Verify reports whether secret matches the stored digest. Malformed
	// digests fail closed: the answer is false, never an error.
	Verify(secret, digest string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost. Costs outside the
// bcrypt range fall back to the library default.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *bcryptHasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
