package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mkrupp/homecase-messenger/internal/domain"
	"github.com/mkrupp/homecase-messenger/internal/infra/db"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
)

// SQLMessageRepository implements Repository on the messages table,
// joining users to expand both parties.
type SQLMessageRepository struct {
	db  *sqlx.DB
	log logging.Logger
}

var _ Repository = (*SQLMessageRepository)(nil)

type messageRow struct {
	ID           int64         `db:"id"`
	FromUsername string        `db:"from_username"`
	ToUsername   string        `db:"to_username"`
	Body         string        `db:"body"`
	SentAt       int64         `db:"sent_at"`
	ReadAt       sql.NullInt64 `db:"read_at"`

	FromFirstName string `db:"from_first_name"`
	FromLastName  string `db:"from_last_name"`
	FromPhone     string `db:"from_phone"`
	ToFirstName   string `db:"to_first_name"`
	ToLastName    string `db:"to_last_name"`
	ToPhone       string `db:"to_phone"`
}

func (r messageRow) toDomain() domain.Message {
	return domain.Message{
		ID:           r.ID,
		FromUsername: r.FromUsername,
		ToUsername:   r.ToUsername,
		Body:         r.Body,
		SentAt:       db.FromMillis(r.SentAt),
		ReadAt:       db.FromNullMillis(r.ReadAt),
		From: domain.UserContact{
			Username:  r.FromUsername,
			FirstName: r.FromFirstName,
			LastName:  r.FromLastName,
			Phone:     r.FromPhone,
		},
		To: domain.UserContact{
			Username:  r.ToUsername,
			FirstName: r.ToFirstName,
			LastName:  r.ToLastName,
			Phone:     r.ToPhone,
		},
	}
}

const selectMessages = `
	SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
	       f.first_name AS from_first_name, f.last_name AS from_last_name, f.phone AS from_phone,
	       t.first_name AS to_first_name, t.last_name AS to_last_name, t.phone AS to_phone
	FROM messages m
	JOIN users f ON f.username = m.from_username
	JOIN users t ON t.username = m.to_username`

// NewSQLMessageRepository creates a repository on an open, migrated database.
func NewSQLMessageRepository(conn *sqlx.DB) *SQLMessageRepository {
	return &SQLMessageRepository{
		db:  conn,
		log: logging.GetLogger("repo.message.sql_message_repository"),
	}
}

// CreateMessage implements Repository.CreateMessage.
func (r *SQLMessageRepository) CreateMessage(
	ctx context.Context,
	from, to, body string,
	sentAt time.Time,
) (*domain.Message, error) {
	var id int64

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO messages (from_username, to_username, body, sent_at)
		 VALUES (?, ?, ?, ?) RETURNING id`),
		from, to, body, db.ToMillis(sentAt),
	).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, fmt.Errorf("insert message: %w", err)
	}

	return &domain.Message{
		ID:           id,
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       db.FromMillis(db.ToMillis(sentAt)),
	}, nil
}

// GetMessage implements Repository.GetMessage.
func (r *SQLMessageRepository) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	var row messageRow

	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectMessages+` WHERE m.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrMessageNotFound, err)
		}

		return nil, fmt.Errorf("query message: %w", err)
	}

	msg := row.toDomain()

	return &msg, nil
}

// ListMessagesTo implements Repository.ListMessagesTo.
func (r *SQLMessageRepository) ListMessagesTo(ctx context.Context, username string) ([]domain.Message, error) {
	return r.list(ctx, `m.to_username`, username)
}

// ListMessagesFrom implements Repository.ListMessagesFrom.
func (r *SQLMessageRepository) ListMessagesFrom(ctx context.Context, username string) ([]domain.Message, error) {
	return r.list(ctx, `m.from_username`, username)
}

func (r *SQLMessageRepository) list(ctx context.Context, column, username string) ([]domain.Message, error) {
	var rows []messageRow

	query := r.db.Rebind(selectMessages + ` WHERE ` + column + ` = ? ORDER BY m.id`)
	if err := r.db.SelectContext(ctx, &rows, query, username); err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toDomain())
	}

	return messages, nil
}

// MarkRead implements Repository.MarkRead.
func (r *SQLMessageRepository) MarkRead(
	ctx context.Context,
	id int64,
	at time.Time,
	policy domain.ReadPolicy,
) (time.Time, error) {
	query := `UPDATE messages SET read_at = ? WHERE id = ? RETURNING read_at`
	if policy == domain.ReadPolicyFirst {
		query = `UPDATE messages SET read_at = COALESCE(read_at, ?) WHERE id = ? RETURNING read_at`
	}

	var readAt int64

	if err := r.db.QueryRowxContext(ctx, r.db.Rebind(query), db.ToMillis(at), id).Scan(&readAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrMessageNotFound, err)
		}

		return time.Time{}, fmt.Errorf("mark read: %w", err)
	}

	r.log.DebugContext(ctx, "message marked read", "id", id, "policy", policy)

	return db.FromMillis(readAt), nil
}
