// Package db opens the relational store shared by the repositories and keeps its schema current.
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
)

// Supported values of Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned for a Config.Driver other than sqlite or postgres.
var ErrUnknownDriver = errors.New("unknown database driver")

// Config holds the database connection parameters.
type Config struct {
	// Driver selects the backend: "sqlite" or "postgres"
	Driver string `env:"DRIVER" default:"sqlite"`

	// DSN is a file path (or ":memory:") for sqlite and a connection URL for postgres
	DSN string `env:"DSN" default:"var/storage/messagesvc.db"`

	// MaxOpenConns limits the postgres pool. SQLite always uses a single connection.
	MaxOpenConns int `env:"MAX_OPEN_CONNS" default:"10"`
}

// Validate implements config.Validator.
func (c Config) Validate() error {
	if c.Driver != DriverSQLite && c.Driver != DriverPostgres {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}

	if c.DSN == "" {
		return errors.New("empty dsn")
	}

	return nil
}

// Open connects to the configured database and applies all pending migrations.
func Open(ctx context.Context, cfg Config) (_ *sqlx.DB, err error) {
	log := logging.GetLogger("infra.db").With(logging.Group("db", "driver", cfg.Driver))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "open db failed", "error", err)
		} else {
			log.DebugContext(ctx, "db ready")
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var db *sqlx.DB

	switch cfg.Driver {
	case DriverSQLite:
		if db, err = openSQLite(cfg.DSN); err != nil {
			return nil, err
		}
	case DriverPostgres:
		if db, err = sqlx.Open("pgx", cfg.DSN); err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := Migrate(ctx, db, cfg.Driver); err != nil {
		db.Close()

		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

func openSQLite(dsn string) (*sqlx.DB, error) {
	path, _, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")

	if path != ":memory:" && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	db, err := sqlx.Open("sqlite", dsn+sep+"_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// sqlite does not support concurrent writes, and every
	// connection to ":memory:" would open a separate database
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}
