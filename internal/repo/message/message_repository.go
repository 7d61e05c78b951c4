package message

import (
	"context"
	"time"

	"github.com/mkrupp/homecase-messenger/internal/domain"
)

// Repository defines the interface for message persistence.
type Repository interface {
	// CreateMessage stores a new unread message and returns it with its assigned id.
	// Returns ErrUserNotFound if either party does not exist.
	CreateMessage(ctx context.Context, from, to, body string, sentAt time.Time) (*domain.Message, error)

	// GetMessage returns the message with both parties expanded.
	// Returns ErrMessageNotFound if no such message exists.
	GetMessage(ctx context.Context, id int64) (*domain.Message, error)

	// ListMessagesTo returns the messages received by username, oldest first.
	ListMessagesTo(ctx context.Context, username string) ([]domain.Message, error)

	// ListMessagesFrom returns the messages sent by username, oldest first.
	ListMessagesFrom(ctx context.Context, username string) ([]domain.Message, error)

	// MarkRead sets the read time of a message in a single write and returns the stored value.
	// Returns ErrMessageNotFound if no such message exists.
	MarkRead(ctx context.Context, id int64, at time.Time, policy domain.ReadPolicy) (time.Time, error)
}
