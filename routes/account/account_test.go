package account

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectx/routes/routestest"
	"connectx/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *routestest.Env {
	env := routestest.New(t)
	env.Mount(Router{Auth: env.Auth, Schema: env.Schema, CookieName: routestest.CookieName})
	return env
}

func TestRegisterLoginLogout(t *testing.T) {
	env := setup(t)

	rec := env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	registered := routestest.Decode[types.AuthSession](t, rec)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "alice", registered.User.Username)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, routestest.CookieName, cookies[0].Name)
	assert.Equal(t, registered.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec = env.Do(t, http.MethodPost, "/auth/login", "", map[string]any{"username": "alice", "password": "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", routestest.Decode[types.ApiError](t, rec).Message)

	rec = env.Do(t, http.MethodPost, "/auth/login", "", map[string]any{"username": "nobody", "password": "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", routestest.Decode[types.ApiError](t, rec).Message)

	rec = env.Do(t, http.MethodPost, "/auth/login", "", map[string]any{"username": "ALICE", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := routestest.Decode[types.AuthSession](t, rec).Token

	rec = env.Do(t, http.MethodGet, "/auth/user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, registered.User.ID, routestest.Decode[types.PublicUser](t, rec).ID)

	rec = env.Do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, env.Do(t, http.MethodGet, "/auth/user", token, nil).Code)
	assert.Equal(t, http.StatusOK, env.Do(t, http.MethodGet, "/auth/user", registered.Token, nil).Code)
}

func TestCookieSession(t *testing.T) {
	env := setup(t)
	_, token := env.Register(t, "alice")

	req, err := http.NewRequest(http.MethodGet, "/auth/user", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: routestest.CookieName, Value: token})

	rec := httptest.NewRecorder()
	env.Mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", routestest.Decode[types.PublicUser](t, rec).Username)
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	env := setup(t)

	rec := env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "a b",
		"email":    "nope",
		"password": "123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := routestest.Decode[types.ApiError](t, rec).Context
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	env.Register(t, "alice")

	rec = env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "Alice",
		"email":    "other@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "unique_username", routestest.Decode[types.ApiError](t, rec).Context["constraint"])

	rec = env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice2",
		"email":    "ALICE@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "unique_email", routestest.Decode[types.ApiError](t, rec).Context["constraint"])
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	env := setup(t)

	rec := env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "alice@x.com",
		"password": strings.Repeat("a", 100),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, routestest.Decode[types.ApiError](t, rec).Context, "password")

	rec = env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "alice@x.com",
		"password": strings.Repeat("a", 72),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegisterReportsTypeAndRuleErrorsTogether(t *testing.T) {
	env := setup(t)

	rec := env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": 42,
		"email":    "bad",
		"password": "1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := routestest.Decode[types.ApiError](t, rec).Context
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}
