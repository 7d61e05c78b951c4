package user

import (
	"context"
	"time"

	"github.com/mkrupp/homecase-messenger/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser adds a new user to the repository.
	// Returns ErrUserAlreadyExists if the username is already taken.
	CreateUser(ctx context.Context, user domain.User) error

	// GetUserByUsername retrieves a user by their username.
	// Returns the user object and true if found, or nil and false if not found.
	// A missing user is also reported as an error wrapping ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error)

	// UpdateLoginTimestamp sets the last-login time of the user.
	// Returns ErrUserNotFound if no such user exists.
	UpdateLoginTimestamp(ctx context.Context, username string, at time.Time) error

	// ListUsers returns every user ordered by username.
	ListUsers(ctx context.Context) ([]domain.User, error)
}
