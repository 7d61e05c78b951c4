package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	context_ "github.com/mkrupp/homecase-messenger/internal/infra/context"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
)

// TokenField is the query parameter and JSON body field that may carry a token.
const TokenField = "_token"

// TokenVerifier resolves a bearer token to the username it was issued for.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// AuthenticatingMiddleware creates middleware that resolves the caller's identity.
// A token is taken from the Authorization header, the `_token` JSON body field or the
// `_token` query parameter, in that order. A verified username is attached to the request
// context; a missing or invalid token leaves the request anonymous. It never rejects a
// request itself.
func AuthenticatingMiddleware(
	next http.Handler,
	verifier TokenVerifier,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, source := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)

			return
		}

		username, err := verifier.VerifyToken(r.Context(), token)
		if err != nil {
			log.DebugContext(r.Context(), "token rejected", "source", source, "error", err)
			next.ServeHTTP(w, r)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithUsername(r.Context(), username)))
	})
}

// Authenticator returns AuthenticatingMiddleware as a Middleware for Wrap.
func Authenticator(verifier TokenVerifier, log logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return AuthenticatingMiddleware(next, verifier, log)
	}
}

func extractToken(r *http.Request) (token, source string) {
	if scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok &&
		strings.EqualFold(scheme, "Bearer") {
		if value = strings.TrimSpace(value); value != "" {
			return value, "header"
		}
	}

	if value := bodyToken(r); value != "" {
		return value, "body"
	}

	if value := r.URL.Query().Get(TokenField); value != "" {
		return value, "query"
	}

	return "", ""
}

// bodyToken peeks at a JSON body and restores it for the next handler.
func bodyToken(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil ||
		mediaType != "application/json" {
		return ""
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}

	if err != nil {
		return ""
	}

	var body struct {
		Token string `json:"_token"`
	}

	if err := json.Unmarshal(buf, &body); err != nil {
		return ""
	}

	return body.Token
}
