// Package app wires the stores, services and HTTP routes of the messenger into a runnable server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"github.com/mkrupp/homecase-messenger/internal/infra/config"
	"github.com/mkrupp/homecase-messenger/internal/infra/db"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-messenger/internal/infra/transport/http"
	"github.com/mkrupp/homecase-messenger/internal/repo/message"
	"github.com/mkrupp/homecase-messenger/internal/repo/user"
	"github.com/mkrupp/homecase-messenger/internal/svc/authsvc"
	"github.com/mkrupp/homecase-messenger/internal/svc/messagesvc"
)

// Config is the complete service configuration.
type Config struct {
	config.EnvConfig

	Log      logging.LoggerConfig      `envPrefix:"LOG_"`
	HTTP     http_.HTTPTransportConfig `envPrefix:"HTTP_"`
	DB       db.Config                 `envPrefix:"DB_"`
	Auth     authsvc.AuthConfig        `envPrefix:"AUTH_"`
	Messages messagesvc.MessageConfig  `envPrefix:"MESSAGES_"`
}

// App holds the wired service.
type App struct {
	Config     Config
	DB         *sqlx.DB
	AuthSvc    *authsvc.AuthService
	MessageSvc *messagesvc.MessageService
	Guards     *authsvc.Guards

	log logging.Logger
}

// New opens the database and builds every service on top of it.
func New(ctx context.Context, cfg Config) (_ *App, err error) {
	conn, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	users := user.NewSQLUserRepository(conn)
	messages := message.NewSQLMessageRepository(conn)

	authSvc, err := authsvc.NewAuthService(users, cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("new auth service: %w", err)
	}

	messageSvc, err := messagesvc.NewMessageService(users, messages, cfg.Messages)
	if err != nil {
		return nil, fmt.Errorf("new message service: %w", err)
	}

	return &App{
		Config:     cfg,
		DB:         conn,
		AuthSvc:    authSvc,
		MessageSvc: messageSvc,
		Guards:     authsvc.NewGuards(messages),
		log:        logging.GetLogger("app"),
	}, nil
}

// Handler returns the routed API behind the full middleware stack, as served by Run.
func (a *App) Handler() http.Handler {
	return http_.Wrap(a.Router(), logging.GetLogger("infra.transport.http"), a.Authenticate())
}

// Authenticate resolves the caller's identity for every request. The routes
// decide through their guards what an identity may do.
func (a *App) Authenticate() http_.Middleware {
	return http_.Authenticator(a.AuthSvc, logging.GetLogger("infra.transport.http.auth"))
}

// Router returns the routed API without the transport middleware.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.StripSlashes)
	r.Use(middleware.RealIP)
	//nolint:exhaustruct
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.Config.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)

	authsvc.NewHTTPTransport(a.AuthSvc).Routes(r)
	messagesvc.NewHTTPTransport(a.MessageSvc, a.Guards).Routes(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http_.WriteError(w, http.StatusNotFound, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http_.WriteError(w, http.StatusMethodNotAllowed, "")
	})

	return r
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.DB.PingContext(r.Context()); err != nil {
		a.log.ErrorContext(r.Context(), "health check failed", "error", err)
		http_.WriteError(w, http.StatusServiceUnavailable, "")

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Run serves the API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := http_.ListenAndServe(ctx, a.Router(), a.Config.HTTP, a.Authenticate()); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Close releases the database connection.
func (a *App) Close() error {
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
