package authsvc

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-messenger/internal/domain"
)

// ErrInvalidCost is returned for a bcrypt cost outside bcrypt.MinCost..bcrypt.MaxCost.
var ErrInvalidCost = errors.New("invalid bcrypt cost")

// PasswordVerifier hashes and checks passwords with bcrypt at a fixed cost.
type PasswordVerifier struct {
	cost  int
	dummy []byte // digest compared against for unknown usernames
}

// NewPasswordVerifier creates a PasswordVerifier with the given bcrypt cost.
func NewPasswordVerifier(cost int) (*PasswordVerifier, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("no such user"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &PasswordVerifier{cost: cost, dummy: dummy}, nil
}

// Hash returns the bcrypt digest of plaintext.
func (v *PasswordVerifier) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			err = errors.Join(domain.ErrInvalidRequest, err)
		}

		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(digest), nil
}

// Check reports whether plaintext matches digest. It never fails on a mismatch.
func (v *PasswordVerifier) Check(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// CheckMissing spends the time of one comparison and reports false.
// It is used for unknown usernames so they take as long as a wrong password.
func (v *PasswordVerifier) CheckMissing(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(v.dummy, []byte(plaintext))

	return false
}
