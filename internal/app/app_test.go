package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-messenger/internal/app"
	"github.com/mkrupp/homecase-messenger/internal/infra/db"
	http_ "github.com/mkrupp/homecase-messenger/internal/infra/transport/http"
	"github.com/mkrupp/homecase-messenger/internal/svc/authsvc"
	"github.com/mkrupp/homecase-messenger/internal/svc/messagesvc"
)

type client struct {
	t   *testing.T
	url string
}

func setup(t *testing.T) *client {
	t.Helper()

	//nolint:exhaustruct
	cfg := app.Config{
		HTTP: http_.HTTPTransportConfig{CORSOrigins: []string{"*"}},
		DB:   db.Config{Driver: db.DriverSQLite, DSN: ":memory:"},
		Auth: authsvc.AuthConfig{
			SecretKey:     "test-secret",
			Issuer:        "messagesvc",
			TokenDuration: 3600,
			BcryptCost:    bcrypt.MinCost,
		},
		Messages: messagesvc.MessageConfig{ReadPolicy: "overwrite"},
	}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())

	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})

	return &client{t: t, url: srv.URL}
}

// do sends body as JSON and decodes the JSON response.
func (c *client) do(method, path, token string, body any) (int, map[string]any) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)

		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.url+path, reader)
	require.NoError(c.t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)

	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp.StatusCode, decoded
}

func (c *client) register(n string) string {
	c.t.Helper()

	status, resp := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username":   "test" + n,
		"password":   "password" + n,
		"first_name": "Test" + n,
		"last_name":  "Testy" + n,
		"phone":      "+1415555000" + n,
	})
	require.Equal(c.t, http.StatusOK, status, resp)

	token, ok := resp["token"].(string)
	require.True(c.t, ok)
	require.NotEmpty(c.t, token)

	return token
}

func (c *client) login(username, password string) (int, map[string]any) {
	c.t.Helper()

	return c.do(http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
}

func TestRegisterLoginListUsers(t *testing.T) {
	t.Parallel()

	c := setup(t)
	c.register("1")

	status, resp := c.login("test1", "password1")
	require.Equal(t, http.StatusOK, status)
	token := resp["token"].(string)

	status, resp = c.do(http.MethodGet, "/users?"+url.Values{"_token": {token}}.Encode(), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{
		map[string]any{"username": "test1", "first_name": "Test1", "last_name": "Testy1"},
	}, resp["users"])

	// trailing slash
	status, _ = c.do(http.MethodGet, "/users/", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp = c.do(http.MethodGet, "/users/test1", token, nil)
	require.Equal(t, http.StatusOK, status)
	profile := resp["user"].(map[string]any)
	assert.Equal(t, "+14155550001", profile["phone"])
	assert.NotEmpty(t, profile["join_at"])
	assert.NotNil(t, profile["last_login_at"])
}

func TestMessageReadFlow(t *testing.T) {
	t.Parallel()

	c := setup(t)
	token1 := c.register("1")
	token2 := c.register("2")
	token3 := c.register("3")

	status, resp := c.do(http.MethodPost, "/messages", token1, map[string]string{
		"to_username": "test2",
		"body":        "hello",
	})
	require.Equal(t, http.StatusOK, status, resp)
	id := int64(resp["message"].(map[string]any)["id"].(float64))
	path := "/messages/" + strconv.FormatInt(id, 10)

	status, resp = c.do(http.MethodGet, path, token2, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, resp["message"].(map[string]any)["read_at"])

	status, resp = c.do(http.MethodPost, path+"/read", token2, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, resp["message"].(map[string]any)["read_at"])

	status, resp = c.do(http.MethodGet, path, token2, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, resp["message"].(map[string]any)["read_at"])

	status, resp = c.do(http.MethodGet, path, token3, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"message": "Unauthorized", "status": float64(401)}, resp["error"])

	status, _ = c.do(http.MethodPost, path+"/read", token1, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfileRequiresSelf(t *testing.T) {
	t.Parallel()

	c := setup(t)
	token1 := c.register("1")
	token2 := c.register("2")

	status, _ := c.do(http.MethodGet, "/users/test1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodGet, "/users/test1", token2, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodGet, "/users/test1", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp := c.do(http.MethodGet, "/users/test1", token1, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "test1", resp["user"].(map[string]any)["username"])
}

func TestBodyToken(t *testing.T) {
	t.Parallel()

	c := setup(t)
	token1 := c.register("1")
	c.register("2")

	status, resp := c.do(http.MethodPost, "/messages", "", map[string]string{
		"_token":      token1,
		"to_username": "test2",
		"body":        "via body",
	})
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, "test1", resp["message"].(map[string]any)["from_username"])
}

func TestAuthErrors(t *testing.T) {
	t.Parallel()

	c := setup(t)
	c.register("1")

	status, resp := c.login("test1", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username/password", resp["error"].(map[string]any)["message"])

	status, resp = c.login("nobody", "password1")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username/password", resp["error"].(map[string]any)["message"])

	status, _ = c.do(http.MethodPost, "/auth/register", "", map[string]string{"username": "test2"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username":   "test1",
		"password":   "other",
		"first_name": "T",
		"last_name":  "T",
		"phone":      "0",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestHealthAndNotFound(t *testing.T) {
	t.Parallel()

	c := setup(t)

	status, resp := c.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", resp["status"])

	status, resp = c.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, float64(404), resp["error"].(map[string]any)["status"])
}
