package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mkrupp/homecase-messenger/internal/app"
	"github.com/mkrupp/homecase-messenger/internal/infra/config"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
)

const (
	appName = "messenger"
	svcName = "messagesvc"
)

func main() {
	var (
		cfg app.Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg app.Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.messagesvc")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	defer func() {
		err = errors.Join(err, a.Close())
	}()

	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return nil
}
