package messagesvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/homecase-messenger/internal/domain"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
	"github.com/mkrupp/homecase-messenger/internal/repo/message"
	"github.com/mkrupp/homecase-messenger/internal/repo/user"
)

// MessageService answers the user and message queries of an authorized caller.
// Callers are expected to have passed the matching guard already.
type MessageService struct {
	Config   MessageConfig
	Users    user.Repository
	Messages message.Repository
	Log      logging.Logger
	Now      func() time.Time
}

// NewMessageService creates a MessageService.
func NewMessageService(users user.Repository, messages message.Repository, cfg MessageConfig) (*MessageService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &MessageService{
		Config:   cfg,
		Users:    users,
		Messages: messages,
		Log:      logging.GetLogger("svc.messagesvc.message_service"),
		Now:      time.Now,
	}, nil
}

// ListUsers returns the listing fields of every user.
func (s *MessageService) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	summaries := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}

	return summaries, nil
}

// GetUser returns the profile of username.
func (s *MessageService) GetUser(ctx context.Context, username string) (domain.UserProfile, error) {
	u, _, err := s.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get user: %w", err)
	}

	return u.Profile(), nil
}

// ListMessagesTo returns the messages received by username with their senders.
func (s *MessageService) ListMessagesTo(ctx context.Context, username string) ([]domain.InboxMessage, error) {
	if err := s.requireUser(ctx, username); err != nil {
		return nil, err
	}

	messages, err := s.Messages.ListMessagesTo(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list messages to: %w", err)
	}

	inbox := make([]domain.InboxMessage, 0, len(messages))
	for _, m := range messages {
		inbox = append(inbox, m.Inbox())
	}

	return inbox, nil
}

// ListMessagesFrom returns the messages sent by username with their recipients.
func (s *MessageService) ListMessagesFrom(ctx context.Context, username string) ([]domain.OutboxMessage, error) {
	if err := s.requireUser(ctx, username); err != nil {
		return nil, err
	}

	messages, err := s.Messages.ListMessagesFrom(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list messages from: %w", err)
	}

	outbox := make([]domain.OutboxMessage, 0, len(messages))
	for _, m := range messages {
		outbox = append(outbox, m.Outbox())
	}

	return outbox, nil
}

// GetMessage returns a message with both parties expanded.
func (s *MessageService) GetMessage(ctx context.Context, id int64) (domain.MessageDetail, error) {
	m, err := s.Messages.GetMessage(ctx, id)
	if err != nil {
		return domain.MessageDetail{}, fmt.Errorf("get message: %w", err)
	}

	return m.Detail(), nil
}

// CreateMessage sends body from the authenticated sender to req.ToUsername.
// Returns an error wrapping ErrUserNotFound if the recipient does not exist.
func (s *MessageService) CreateMessage(
	ctx context.Context,
	from string,
	req domain.CreateMessageRequest,
) (_ domain.CreatedMessage, err error) {
	log := s.Log.With(logging.Group("message", "from", from, "to", req.ToUsername))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create message failed", "error", err)
		} else {
			log.DebugContext(ctx, "message created")
		}
	}()

	if err := s.requireUser(ctx, req.ToUsername); err != nil {
		return domain.CreatedMessage{}, err
	}

	m, err := s.Messages.CreateMessage(ctx, from, req.ToUsername, req.Body, s.Now().UTC())
	if err != nil {
		return domain.CreatedMessage{}, fmt.Errorf("create message: %w", err)
	}

	log = log.With("id", m.ID)

	return m.Created(), nil
}

// MarkRead records that the recipient read message id.
func (s *MessageService) MarkRead(ctx context.Context, id int64) (_ domain.ReadReceipt, err error) {
	log := s.Log.With(logging.Group("message", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "mark read failed", "error", err)
		} else {
			log.DebugContext(ctx, "message marked read")
		}
	}()

	readAt, err := s.Messages.MarkRead(ctx, id, s.Now().UTC(), domain.ReadPolicy(s.Config.ReadPolicy))
	if err != nil {
		return domain.ReadReceipt{}, fmt.Errorf("mark read: %w", err)
	}

	return domain.ReadReceipt{ID: id, ReadAt: readAt}, nil
}

func (s *MessageService) requireUser(ctx context.Context, username string) error {
	if _, _, err := s.Users.GetUserByUsername(ctx, username); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("lookup %q: %w", username, err)
		}

		return fmt.Errorf("get user: %w", err)
	}

	return nil
}
