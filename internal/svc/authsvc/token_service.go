package authsvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/homecase-messenger/internal/domain"
)

var errEmptySubject = errors.New("empty subject")

// TokenService issues and verifies stateless HS256 session tokens.
// It holds no state besides its immutable configuration and issuance clock
// and is safe for concurrent use.
type TokenService struct {
	secret   []byte
	issuer   string
	duration time.Duration
	issueAt  *monotonicClock
	now      Clock
}

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewTokenService creates a TokenService. now defaults to time.Now.
func NewTokenService(secret []byte, issuer string, duration time.Duration, now Clock) *TokenService {
	if now == nil {
		now = time.Now
	}

	return &TokenService{
		secret:   secret,
		issuer:   issuer,
		duration: duration,
		issueAt:  newMonotonicClock(now),
		now:      now,
	}
}

// Issue signs a token asserting username. The caller must have verified the identity.
func (s *TokenService) Issue(username string) (string, error) {
	iat := s.issueAt.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(s.duration)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature, issuer and expiry of a token and returns its claims.
// Every failure wraps domain.ErrInvalidAuthToken.
func (s *TokenService) Verify(raw string) (domain.AuthToken, error) {
	var claims tokenClaims

	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.AuthToken{}, errors.Join(domain.ErrInvalidAuthToken, err)
	}

	if claims.Subject == "" || claims.Username != claims.Subject {
		return domain.AuthToken{}, errors.Join(domain.ErrInvalidAuthToken, errEmptySubject)
	}

	token := domain.AuthToken{Username: claims.Subject}

	if claims.IssuedAt != nil {
		token.IssuedAt = claims.IssuedAt.Unix()
	}

	if claims.ExpiresAt != nil {
		token.ExpiresAt = claims.ExpiresAt.Unix()
	}

	return token, nil
}
