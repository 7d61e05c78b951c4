package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/homecase-messenger/internal/domain"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-messenger/internal/infra/transport/http"
)

// HTTPTransport handles HTTP requests for the authentication service.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
}

// NewHTTPTransport creates a new HTTPTransport instance.
func NewHTTPTransport(authSvc *AuthService) *HTTPTransport {
	return &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
	}
}

// Routes registers the open auth endpoints:
// - POST /auth/register: Register a new user and get an auth token
// - POST /auth/login: Login and get an auth token.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Post("/auth/register", ht.HandleRegister)
	r.Post("/auth/login", ht.HandleLogin)
}

// HandleRegister processes user registration requests.
// Expects a JSON body: username, password, first_name, last_name, phone.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "path", r.URL.Path))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var req domain.RegisterRequest
	if err := http_.DecodeJSON(w, r, &req); err != nil {
		http_.WriteError(w, http.StatusBadRequest, http_.ValidationMessage(err))

		return err
	}

	log = log.With(logging.Group("user", "username", req.Username))

	token, err := ht.authSvc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			http_.WriteError(w, http.StatusConflict, "Username already taken")
		case errors.Is(err, domain.ErrInvalidRequest):
			http_.WriteError(w, http.StatusBadRequest, "")
		default:
			http_.WriteError(w, http.StatusInternalServerError, "")
		}

		return fmt.Errorf("register user: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, domain.AuthTokenResponse{Token: token}); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// HandleLogin processes user login requests.
// Expects a JSON body: username, password.
// Returns an auth token on successful login.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "path", r.URL.Path))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	var req domain.LoginRequest
	if err := http_.DecodeJSON(w, r, &req); err != nil {
		http_.WriteError(w, http.StatusBadRequest, http_.ValidationMessage(err))

		return err
	}

	log = log.With(logging.Group("user", "username", req.Username))

	token, err := ht.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http_.WriteError(w, http.StatusUnauthorized, http_.MessageInvalidCredentials)
		} else {
			http_.WriteError(w, http.StatusInternalServerError, "")
		}

		return fmt.Errorf("login user: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, domain.AuthTokenResponse{Token: token}); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}
