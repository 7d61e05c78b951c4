package messagesvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/homecase-messenger/internal/domain"
	context_ "github.com/mkrupp/homecase-messenger/internal/infra/context"
	"github.com/mkrupp/homecase-messenger/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-messenger/internal/infra/transport/http"
	"github.com/mkrupp/homecase-messenger/internal/svc/authsvc"
)

const (
	paramUsername = "username"
	paramID       = "id"
)

// HTTPTransport handles HTTP requests for the message service.
type HTTPTransport struct {
	messageSvc *MessageService
	guards     *authsvc.Guards
	log        logging.Logger
}

// NewHTTPTransport creates a new HTTPTransport instance.
func NewHTTPTransport(messageSvc *MessageService, guards *authsvc.Guards) *HTTPTransport {
	return &HTTPTransport{
		messageSvc: messageSvc,
		guards:     guards,
		log:        logging.GetLogger("svc.messagesvc.http_transport"),
	}
}

// Routes registers the guarded endpoints:
// - GET /users: list all users
// - GET /users/{username}: profile of the caller
// - GET /users/{username}/to: messages received by the caller
// - GET /users/{username}/from: messages sent by the caller
// - GET /messages/{id}: a message the caller sent or received
// - POST /messages: send a message as the caller
// - POST /messages/{id}/read: mark a message received by the caller as read.
func (ht *HTTPTransport) Routes(r chi.Router) {
	self := ht.guards.RequireSelf(paramUsername)

	r.With(ht.guards.RequireAuthenticated).Get("/users", ht.HandleListUsers)
	r.With(self).Get("/users/{username}", ht.HandleGetUser)
	r.With(self).Get("/users/{username}/to", ht.HandleListMessagesTo)
	r.With(self).Get("/users/{username}/from", ht.HandleListMessagesFrom)

	r.With(ht.guards.RequireParty(paramID)).Get("/messages/{id}", ht.HandleGetMessage)
	r.With(ht.guards.RequireAuthenticated).Post("/messages", ht.HandleCreateMessage)
	r.With(ht.guards.RequireRecipient(paramID)).Post("/messages/{id}/read", ht.HandleMarkRead)
}

// HandleListUsers returns {"users": [...]}.
func (ht *HTTPTransport) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	_ = ht.serve(w, r, "list users", func(ctx context.Context) (any, error) {
		users, err := ht.messageSvc.ListUsers(ctx)
		if err != nil {
			return nil, err
		}

		return domain.UsersResponse{Users: users}, nil
	})
}

// HandleGetUser returns {"user": {...}}.
func (ht *HTTPTransport) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, paramUsername)

	_ = ht.serve(w, r, "get user", func(ctx context.Context) (any, error) {
		profile, err := ht.messageSvc.GetUser(ctx, username)
		if err != nil {
			return nil, err
		}

		return domain.UserResponse{User: profile}, nil
	})
}

// HandleListMessagesTo returns {"messages": [...]} with each sender expanded.
func (ht *HTTPTransport) HandleListMessagesTo(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, paramUsername)

	_ = ht.serve(w, r, "list messages to", func(ctx context.Context) (any, error) {
		messages, err := ht.messageSvc.ListMessagesTo(ctx, username)
		if err != nil {
			return nil, err
		}

		return domain.InboxResponse{Messages: messages}, nil
	})
}

// HandleListMessagesFrom returns {"messages": [...]} with each recipient expanded.
func (ht *HTTPTransport) HandleListMessagesFrom(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, paramUsername)

	_ = ht.serve(w, r, "list messages from", func(ctx context.Context) (any, error) {
		messages, err := ht.messageSvc.ListMessagesFrom(ctx, username)
		if err != nil {
			return nil, err
		}

		return domain.OutboxResponse{Messages: messages}, nil
	})
}

// HandleGetMessage returns {"message": {...}} with both parties expanded.
func (ht *HTTPTransport) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	_ = ht.serve(w, r, "get message", func(ctx context.Context) (any, error) {
		id, err := messageID(r)
		if err != nil {
			return nil, err
		}

		detail, err := ht.messageSvc.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}

		return domain.MessageDetailResponse{Message: detail}, nil
	})
}

// HandleCreateMessage sends a message from the caller.
// Expects a JSON body: to_username, body.
func (ht *HTTPTransport) HandleCreateMessage(w http.ResponseWriter, r *http.Request) {
	_ = ht.serve(w, r, "create message", func(ctx context.Context) (any, error) {
		from, ok := context_.UsernameFromContext(ctx)
		if !ok {
			return nil, domain.ErrUnauthorized
		}

		var req domain.CreateMessageRequest
		if err := http_.DecodeJSON(w, r, &req); err != nil {
			return nil, err
		}

		created, err := ht.messageSvc.CreateMessage(ctx, from, req)
		if err != nil {
			return nil, err
		}

		return domain.CreatedMessageResponse{Message: created}, nil
	})
}

// HandleMarkRead records the read time of a message and returns {"message": {"id", "read_at"}}.
func (ht *HTTPTransport) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	_ = ht.serve(w, r, "mark read", func(ctx context.Context) (any, error) {
		id, err := messageID(r)
		if err != nil {
			return nil, err
		}

		receipt, err := ht.messageSvc.MarkRead(ctx, id)
		if err != nil {
			return nil, err
		}

		return domain.ReadReceiptResponse{Message: receipt}, nil
	})
}

func (ht *HTTPTransport) serve(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(ctx context.Context) (any, error),
) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "path", r.URL.Path))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, op+" failed", "error", err)
		} else {
			log.DebugContext(ctx, op)
		}
	}(r.Context())

	resp, err := fn(r.Context())
	if err != nil {
		writeServiceError(w, err)

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// writeServiceError answers 401 for any reference the caller may not resolve,
// so an unknown user or message is indistinguishable from a forbidden one.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		http_.WriteError(w, http.StatusBadRequest, http_.ValidationMessage(err))
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		http_.WriteUnauthorized(w)
	default:
		http_.WriteError(w, http.StatusInternalServerError, "")
	}
}

func messageID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, paramID), 10, 64)
	if err != nil {
		return 0, errors.Join(domain.ErrMessageNotFound, err)
	}

	return id, nil
}
