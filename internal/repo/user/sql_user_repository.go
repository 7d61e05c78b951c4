package user

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

// SQLUserRepository implements Repository on the users table.
// Queries use `?` placeholders and are rebound to the driver's style.
type SQLUserRepository struct {
	db  *sqlx.DB
	log logging.Logger
}

var _ Repository = (*SQLUserRepository)(nil)

type userRow struct {
	Username    string        `db:"username"`
	Password    string        `db:"password"`
	FirstName   string        `db:"first_name"`
	LastName    string        `db:"last_name"`
	Phone       string        `db:"phone"`
	JoinAt      int64         `db:"join_at"`
	LastLoginAt sql.NullInt64 `db:"last_login_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		Username:     r.Username,
		PasswordHash: r.Password,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
		JoinAt:       db.FromMillis(r.JoinAt),
		LastLoginAt:  db.FromNullMillis(r.LastLoginAt),
	}
}

const userColumns = `username, password, first_name, last_name, phone, join_at, last_login_at`

// NewSQLUserRepository creates a repository on an open, migrated database.
func NewSQLUserRepository(conn *sqlx.DB) *SQLUserRepository {
	return &SQLUserRepository{
		db:  conn,
		log: logging.GetLogger("repo.user.sql_user_repository"),
	}
}

// CreateUser implements Repository.CreateUser.
func (r *SQLUserRepository) CreateUser(ctx context.Context, user domain.User) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO users (username, password, first_name, last_name, phone, join_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		db.ToMillis(user.JoinAt),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername.
func (r *SQLUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	var row userRow

	err := r.db.GetContext(ctx, &row, r.db.Rebind(
		`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	user := row.toDomain()

	return &user, true, nil
}

// UpdateLoginTimestamp implements Repository.UpdateLoginTimestamp.
func (r *SQLUserRepository) UpdateLoginTimestamp(ctx context.Context, username string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE users SET last_login_at = ? WHERE username = ?`), db.ToMillis(at), username)
	if err != nil {
		return fmt.Errorf("update login timestamp: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("update login timestamp: %w", domain.ErrUserNotFound)
	}

	return nil
}

// ListUsers implements Repository.ListUsers.
func (r *SQLUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow

	if err := r.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY username`); err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}

	r.log.DebugContext(ctx, "users listed", "count", len(users))

	return users, nil
}
