package db

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
//
//nolint:gochecknoglobals
var migrateLock sync.Mutex

// Migrate applies the embedded migrations of the given driver to db.
func Migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	var dialect string

	switch driver {
	case DriverSQLite:
		dialect = "sqlite3"
	case DriverPostgres:
		dialect = "pgx"
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	migrateLock.Lock()
	defer migrateLock.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{log: logging.GetLogger("infra.db.migrate")})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, "migrations/"+driver); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

type gooseLogger struct {
	log logging.Logger
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	l.log.Error(msg)

	panic(msg)
}
