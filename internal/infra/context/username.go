package context

import (
	"context"
)

const contextKeyUsername = contextKey("username")

// UsernameFromContext returns the authenticated username attached by the authentication middleware.
// An empty username is reported as absent.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(contextKeyUsername).(string)

	return username, ok && username != ""
}

// WithUsername creates a new context carrying the authenticated username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextKeyUsername, username)
}
