package authsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-messenger/internal/domain"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
	"github.com/mkrupp/homecase-messenger/internal/svc/authsvc"
)

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	users map[string]*domain.User
	err   error
	m     sync.Mutex
}

func (m *mockUserRepository) CreateUser(_ context.Context, user domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}
	if _, exists := m.users[user.Username]; exists {
		return domain.ErrUserAlreadyExists
	}
	m.users[user.Username] = &user
	return nil
}

func (m *mockUserRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}
	user, exists := m.users[username]
	if !exists {
		return nil, false, domain.ErrUserNotFound
	}
	u := *user
	return &u, true, nil
}

func (m *mockUserRepository) UpdateLoginTimestamp(_ context.Context, username string, at time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}
	user, exists := m.users[username]
	if !exists {
		return domain.ErrUserNotFound
	}
	user.LastLoginAt = &at
	return nil
}

func (m *mockUserRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockUserRepository) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.err = err
}

func newMockUserRepo() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

var ErrRepoError = errors.New("repository error")

var now = time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

func setupTestService(t *testing.T) (*authsvc.AuthService, *mockUserRepository) {
	t.Helper()

	mockRepo := newMockUserRepo()
	cfg := authsvc.AuthConfig{
		SecretKey:     "test-secret",
		Issuer:        "messagesvc",
		TokenDuration: 3600,
		BcryptCost:    bcrypt.MinCost,
	}

	svc, err := authsvc.NewAuthService(mockRepo, cfg)
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}

	svc.Log = logging.GetLogger("test.authsvc")
	svc.Now = fixedClock(now)
	svc.Tokens = authsvc.NewTokenService([]byte(cfg.SecretKey), cfg.Issuer, time.Hour, fixedClock(now))

	return svc, mockRepo
}

func registerRequest(username, password string) domain.RegisterRequest {
	return domain.RegisterRequest{
		Username:  username,
		Password:  password,
		FirstName: "Test",
		LastName:  "Testy",
		Phone:     "+14155550000",
	}
}

//nolint:paralleltest
func TestAuthService_Register(t *testing.T) {
	svc, mockRepo := setupTestService(t)

	tests := []struct {
		name     string
		username string
		password string
		repoErr  error
		wantErr  error
	}{
		{
			name:     "successful registration",
			username: "newuser",
			password: "password123",
			wantErr:  nil,
		},
		{
			name:     "duplicate username",
			username: "existinguser",
			password: "password123",
			wantErr:  domain.ErrUserAlreadyExists,
		},
		{
			name:     "repository error",
			username: "erroruser",
			password: "password123",
			repoErr:  ErrRepoError,
			wantErr:  ErrRepoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name == "duplicate username" {
				_, _ = svc.Register(context.Background(), registerRequest(tt.username, "oldpass"))
			}
			mockRepo.setErr(tt.repoErr)

			token, err := svc.Register(context.Background(), registerRequest(tt.username, tt.password))

			if (err != nil) != (tt.wantErr != nil) {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			username, err := svc.VerifyToken(context.Background(), token)
			if err != nil || username != tt.username {
				t.Errorf("Register() token resolves to %q, %v", username, err)
			}

			stored := mockRepo.users[tt.username]
			if stored.PasswordHash == tt.password {
				t.Error("Register() stored the plaintext password")
			}
			if !stored.JoinAt.Equal(now) {
				t.Errorf("Register() join_at = %v, want %v", stored.JoinAt, now)
			}
			if stored.LastLoginAt != nil {
				t.Error("Register() set last_login_at")
			}
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("testuser", "testpass123")); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Authenticate(ctx, "testuser", "testpass123"); err != nil {
		t.Errorf("Authenticate() error = %v", err)
	}

	wrongPassword := svc.Authenticate(ctx, "testuser", "wrongpass")
	unknownUser := svc.Authenticate(ctx, "nonexistent", "testpass123")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) || !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("Authenticate() errors = %v, %v", wrongPassword, unknownUser)
	}

	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("Authenticate() distinguishes failures: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	digest, err := bcrypt.GenerateFromPassword([]byte("testpass123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	mockRepo.users["testuser"] = &domain.User{
		Username:     "testuser",
		PasswordHash: string(digest),
		JoinAt:       now.Add(-time.Hour),
	}

	tests := []struct {
		name     string
		username string
		password string
		repoErr  error
		wantErr  error
	}{
		{
			name:     "successful login",
			username: "testuser",
			password: "testpass123",
			wantErr:  nil,
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrongpass",
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name:     "user not found",
			username: "nonexistent",
			password: "anypass",
			wantErr:  domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := svc.Login(context.Background(), tt.username, tt.password)

			if (err != nil) != (tt.wantErr != nil) {
				t.Errorf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if _, err = svc.ValidateToken(context.Background(), token); err != nil {
					t.Errorf("Login() generated invalid token: %v", err)
				}
			}
		})
	}
}

func TestAuthService_LoginUpdatesTimestamp(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("testuser", "testpass123")); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "testuser", "wrongpass"); err == nil {
		t.Fatal("Login() accepted a wrong password")
	}

	if mockRepo.users["testuser"].LastLoginAt != nil {
		t.Fatal("failed login updated last_login_at")
	}

	if _, err := svc.Login(ctx, "testuser", "testpass123"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if got := mockRepo.users["testuser"].LastLoginAt; got == nil || !got.Equal(now) {
		t.Errorf("last_login_at = %v, want %v", got, now)
	}
}

func TestAuthService_LoginRepositoryError(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)
	mockRepo.setErr(ErrRepoError)

	_, err := svc.Login(context.Background(), "testuser", "testpass123")
	if !errors.Is(err, ErrRepoError) || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want %v", err, ErrRepoError)
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	ctx := context.Background()
	validToken, err := svc.Register(ctx, registerRequest("testuser", "testpass"))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "valid token",
			token:   validToken,
			wantErr: nil,
		},
		{
			name:    "invalid token format",
			token:   "invalid-token",
			wantErr: domain.ErrInvalidAuthToken,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: domain.ErrInvalidAuthToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := svc.ValidateToken(ctx, tt.token)

			if (err != nil) != (tt.wantErr != nil) {
				t.Errorf("ValidateToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if token.Username != "testuser" {
					t.Errorf("ValidateToken() username = %v, want %v", token.Username, "testuser")
				}
				if token.ExpiresAt != now.Add(time.Hour).Unix() {
					t.Errorf("ValidateToken() exp = %v", token.ExpiresAt)
				}
			}
		})
	}
}

func TestAuthConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := authsvc.AuthConfig{SecretKey: "s", Issuer: "i", TokenDuration: 60, BcryptCost: 10}

	tests := []struct {
		name    string
		mutate  func(*authsvc.AuthConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(*authsvc.AuthConfig) {}},
		{name: "no secret", mutate: func(c *authsvc.AuthConfig) { c.SecretKey = "" }, wantErr: authsvc.ErrNoSecretKey},
		{
			name:    "zero duration",
			mutate:  func(c *authsvc.AuthConfig) { c.TokenDuration = 0 },
			wantErr: authsvc.ErrInvalidTokenDuration,
		},
		{name: "cost too high", mutate: func(c *authsvc.AuthConfig) { c.BcryptCost = 99 }, wantErr: authsvc.ErrInvalidCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
