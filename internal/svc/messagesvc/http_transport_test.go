package messagesvc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-messenger/internal/domain"
	context_ "github.com/mkrupp/homecase-messenger/internal/infra/context"
	"github.com/mkrupp/homecase-messenger/internal/svc/authsvc"
	"github.com/mkrupp/homecase-messenger/internal/svc/messagesvc"
)

const testUserHeader = "X-Test-User"

func setupTransport(t *testing.T) http.Handler {
	t.Helper()

	f := setupService(t, domain.ReadPolicyOverwrite)
	transport := messagesvc.NewHTTPTransport(f.svc, authsvc.NewGuards(f.messages))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username := r.Header.Get(testUserHeader); username != "" {
				r = r.WithContext(context_.WithUsername(r.Context(), username))
			}

			next.ServeHTTP(w, r)
		})
	})
	transport.Routes(r)

	return r
}

func do(t *testing.T, h http.Handler, method, path, username, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if username != "" {
		req.Header.Set(testUserHeader, username)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())

	return rec, resp
}

func TestHTTPTransport_Users(t *testing.T) {
	t.Parallel()

	h := setupTransport(t)

	rec, resp := do(t, h, http.MethodGet, "/users", "test3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	users, ok := resp["users"].([]any)
	require.True(t, ok)
	assert.Len(t, users, 3)
	assert.Equal(t, map[string]any{"username": "test1", "first_name": "Test1", "last_name": "Testy1"}, users[0])

	rec, resp = do(t, h, http.MethodGet, "/users/test1", "test1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := resp["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "+491760000001", user["phone"])
	assert.Nil(t, user["last_login_at"])

	rec, _ = do(t, h, http.MethodGet, "/users/test1", "test2", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPTransport_MessageFlow(t *testing.T) {
	t.Parallel()

	h := setupTransport(t)

	rec, resp := do(t, h, http.MethodPost, "/messages", "test1", `{"to_username":"test2","body":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created, ok := resp["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test1", created["from_username"])
	assert.Equal(t, "test2", created["to_username"])
	id := int64(created["id"].(float64))
	path := "/messages/" + strconv.FormatInt(id, 10)

	rec, resp = do(t, h, http.MethodGet, path, "test2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := resp["message"].(map[string]any)
	assert.Nil(t, detail["read_at"])
	assert.Equal(t, "test1", detail["from_user"].(map[string]any)["username"])

	rec, _ = do(t, h, http.MethodGet, path, "test3", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodPost, path+"/read", "test1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp = do(t, h, http.MethodPost, path+"/read", "test2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	receipt := resp["message"].(map[string]any)
	assert.InDelta(t, float64(id), receipt["id"], 0)
	assert.NotNil(t, receipt["read_at"])

	rec, resp = do(t, h, http.MethodGet, "/users/test2/to", "test2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := resp["messages"].([]any)
	require.Len(t, inbox, 1)
	assert.NotNil(t, inbox[0].(map[string]any)["read_at"])

	rec, resp = do(t, h, http.MethodGet, "/users/test1/from", "test1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp["messages"], 1)

	rec, _ = do(t, h, http.MethodGet, "/users/test1/from", "test2", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPTransport_CreateMessageErrors(t *testing.T) {
	t.Parallel()

	h := setupTransport(t)

	tests := []struct {
		name     string
		username string
		body     string
		status   int
	}{
		{name: "anonymous", body: `{"to_username":"test2","body":"x"}`, status: http.StatusUnauthorized},
		{name: "unknown recipient", username: "test1", body: `{"to_username":"nobody","body":"x"}`, status: http.StatusUnauthorized},
		{name: "missing body", username: "test1", body: `{"to_username":"test2"}`, status: http.StatusBadRequest},
		{name: "malformed", username: "test1", body: `{"to_username":`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPost, "/messages", tt.username, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			body, ok := resp["error"].(map[string]any)
			require.True(t, ok)
			assert.InDelta(t, float64(tt.status), body["status"], 0)
		})
	}
}
