package http

import (
	"encoding/json"
	"net/http"

	"github.com/mkrupp/homecase-messenger/internal/domain"
)

// Messages used in error envelopes.
const (
	MessageUnauthorized       = "Unauthorized"
	MessageInvalidCredentials = "Invalid username/password"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	//nolint:wrapcheck
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope {"error": {"message", "status"}}.
// An empty message is replaced by the status text.
func WriteError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}

	_ = WriteJSON(w, status, domain.ErrorResponse{
		Error: domain.ErrorBody{Message: message, Status: status},
	})
}

// WriteUnauthorized writes the 401 envelope shared by every failed guard.
func WriteUnauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, MessageUnauthorized)
}
