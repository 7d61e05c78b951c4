package authsvc

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/homecase-messenger/internal/domain"
	context_ "github.com/mkrupp/homecase-messenger/internal/infra/context"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-messenger/internal/infra/transport/http"
)

// MessageLoader loads the message a guard checks the caller against.
type MessageLoader interface {
	GetMessage(ctx context.Context, id int64) (*domain.Message, error)
}

// Guards are authorization middlewares applied after AuthenticatingMiddleware.
// Every failed check answers 401 and stops the request. A referenced message
// that does not exist fails the same way as one the caller is not a party of.
type Guards struct {
	messages MessageLoader
	log      logging.Logger
}

// NewGuards creates guards that load messages from messages.
func NewGuards(messages MessageLoader) *Guards {
	return &Guards{
		messages: messages,
		log:      logging.GetLogger("svc.authsvc.guards"),
	}
}

// RequireAuthenticated admits any request carrying an identity.
func (g *Guards) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := context_.UsernameFromContext(r.Context()); !ok {
			g.deny(w, r, "RequireAuthenticated")

			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireSelf admits a request whose identity equals the path parameter param.
func (g *Guards) RequireSelf(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, ok := context_.UsernameFromContext(r.Context())
			if !ok || username != chi.URLParam(r, param) {
				g.deny(w, r, "RequireSelf")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireParty admits a request whose identity is the sender or the recipient
// of the message named by the path parameter param.
func (g *Guards) RequireParty(param string) func(http.Handler) http.Handler {
	return g.requireMessage("RequireParty", param, domain.Message.IsParty)
}

// RequireRecipient admits a request whose identity is the recipient
// of the message named by the path parameter param.
func (g *Guards) RequireRecipient(param string) func(http.Handler) http.Handler {
	return g.requireMessage("RequireRecipient", param, domain.Message.IsRecipient)
}

func (g *Guards) requireMessage(
	guard string,
	param string,
	allowed func(domain.Message, string) bool,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, ok := context_.UsernameFromContext(r.Context())
			if !ok {
				g.deny(w, r, guard)

				return
			}

			id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil {
				g.deny(w, r, guard)

				return
			}

			msg, err := g.messages.GetMessage(r.Context(), id)
			if err != nil {
				if errors.Is(err, domain.ErrMessageNotFound) {
					g.deny(w, r, guard)

					return
				}

				g.log.ErrorContext(r.Context(), "load message failed", "guard", guard, "error", err)
				http_.WriteError(w, http.StatusInternalServerError, "")

				return
			}

			if !allowed(*msg, username) {
				g.deny(w, r, guard)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guards) deny(w http.ResponseWriter, r *http.Request, guard string) {
	g.log.DebugContext(r.Context(), "access denied", "guard", guard, "path", r.URL.Path)
	http_.WriteUnauthorized(w)
}
