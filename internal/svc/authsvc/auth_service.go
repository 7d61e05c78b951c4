package authsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-messenger/internal/domain"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-messenger/internal/infra/transport/http"
	"github.com/mkrupp/homecase-messenger/internal/repo/user"
)

var (
	// ErrNoSecretKey is returned when the token signing secret is empty.
	ErrNoSecretKey = errors.New("no secret key")
	// ErrInvalidTokenDuration is returned for a non-positive token lifetime.
	ErrInvalidTokenDuration = errors.New("invalid token duration")
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// SecretKey signs and verifies session tokens
	SecretKey string `env:"SECRET_KEY"`

	// Issuer is stored in and required from every token
	Issuer string `env:"ISSUER" default:"messagesvc"`

	// TokenDuration is the validity duration of auth tokens in seconds
	TokenDuration int64 `env:"TOKEN_DURATION" default:"86400"` // 24h

	// BcryptCost is the work factor of password hashing
	BcryptCost int `env:"BCRYPT_COST" default:"12"`
}

// Validate implements config.Validator.
func (c AuthConfig) Validate() error {
	if c.SecretKey == "" {
		return ErrNoSecretKey
	}

	if c.TokenDuration <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTokenDuration, c.TokenDuration)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: %d", ErrInvalidCost, c.BcryptCost)
	}

	return nil
}

// AuthService provides registration, login and token verification.
type AuthService struct {
	Config    AuthConfig
	UserRepo  user.Repository
	Passwords *PasswordVerifier
	Tokens    *TokenService
	Log       logging.Logger
	Now       Clock
}

var _ http_.TokenVerifier = (*AuthService)(nil)

// NewAuthService creates a new AuthService with the given user repository and configuration.
// Returns an error if the configuration is invalid.
func NewAuthService(userRepo user.Repository, cfg AuthConfig) (*AuthService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	passwords, err := NewPasswordVerifier(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("new password verifier: %w", err)
	}

	return &AuthService{
		Config:    cfg,
		UserRepo:  userRepo,
		Passwords: passwords,
		Tokens: NewTokenService(
			[]byte(cfg.SecretKey),
			cfg.Issuer,
			time.Duration(cfg.TokenDuration)*time.Second,
			time.Now,
		),
		Log: logging.GetLogger("svc.authsvc.auth_service"),
		Now: time.Now,
	}, nil
}

// Register creates a new user and returns a token for it.
// The password is hashed before storage; the last-login time stays unset.
// Returns an error wrapping ErrUserAlreadyExists if the username is taken.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (_ string, err error) {
	log := s.Log.With(logging.Group("user", "username", req.Username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	digest, err := s.Passwords.Hash(req.Password)
	if err != nil {
		return "", err
	}

	if err := s.UserRepo.CreateUser(ctx, domain.User{
		Username:     req.Username,
		PasswordHash: digest,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		JoinAt:       s.Now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.Tokens.Issue(req.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// Authenticate returns nil if password matches the stored digest of username.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) error {
	u, ok, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("get user: %w", err)
	}

	if err != nil || !ok {
		s.Passwords.CheckMissing(password)

		return domain.ErrInvalidCredentials
	}

	if !s.Passwords.Check(password, u.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	return nil
}

// Login authenticates a user, records the login time and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (_ string, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	if err := s.Authenticate(ctx, username, password); err != nil {
		return "", err
	}

	if err := s.UserRepo.UpdateLoginTimestamp(ctx, username, s.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", errors.Join(domain.ErrInvalidCredentials, err)
		}

		return "", fmt.Errorf("update login timestamp: %w", err)
	}

	token, err := s.Tokens.Issue(username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// ValidateToken verifies a token's signature and expiration and returns its claims.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (token domain.AuthToken, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "validate token failed", "error", err)
		} else {
			log.DebugContext(ctx, "token validated")
		}
	}()

	token, err = s.Tokens.Verify(raw)
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("validate token: %w", err)
	}

	log = log.With(logging.Group("token",
		"username", token.Username,
		"exp", time.Unix(token.ExpiresAt, 0).UTC().Format(time.RFC3339),
		"iat", time.Unix(token.IssuedAt, 0).UTC().Format(time.RFC3339),
	))

	return token, nil
}

// VerifyToken implements http.TokenVerifier.
func (s *AuthService) VerifyToken(ctx context.Context, raw string) (string, error) {
	token, err := s.ValidateToken(ctx, raw)
	if err != nil {
		return "", err
	}

	return token.Username, nil
}
