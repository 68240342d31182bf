// Package routestest mounts routers on an in-memory backend for handler tests.
package routestest

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"connectx/api"
	"connectx/auth"
	docs "connectx/doclib"
	"connectx/schema"
	"connectx/sessions"
	"connectx/storage/memory"
	"connectx/types"
	"connectx/uapi"

	"github.com/go-chi/chi/v5"
	"github.com/infinitybotlist/eureka/jsonimpl"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const CookieName = "connectx_session"

type Env struct {
	Store    *memory.Memory
	Sessions *sessions.MemoryStore
	Auth     *auth.Manager
	Schema   *schema.Schema
	Mux      *chi.Mux
}

// New builds a fresh backend and resets the process-wide route and docs state
func New(t testing.TB) *Env {
	t.Helper()

	logger := zap.NewNop()
	store := memory.New()
	sess := sessions.NewMemoryStore(0, logger)
	t.Cleanup(func() { sess.Close() })

	mgr := auth.NewManager(store, sess, auth.Options{
		Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost},
		Logger: logger,
	})

	api.SetupDocs("http://localhost", logger)
	api.Setup(api.Options{Auth: mgr, CookieName: CookieName, Logger: logger})

	return &Env{
		Store:    store,
		Sessions: sess,
		Auth:     mgr,
		Schema:   schema.New(nil),
		Mux:      chi.NewRouter(),
	}
}

func (e *Env) Mount(routers ...uapi.APIRouter) {
	for _, router := range routers {
		name, desc := router.Tag()
		docs.AddTag(name, desc)
		uapi.State.SetCurrentTag(name)
		router.Routes(e.Mux)
	}
}

// Register creates a user directly through the auth manager and returns its session token
func (e *Env) Register(t testing.TB, username string) (*types.User, string) {
	t.Helper()

	u, sess, err := e.Auth.Register(context.Background(), &types.RegisterUser{
		Username: username,
		Email:    username + "@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return u, sess.Token
}

// Do sends a request with an optional bearer token and JSON body
func (e *Env) Do(t testing.TB, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		b, err := jsonimpl.Marshal(body)
		require.NoError(t, err)
		buf.Write(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(api.AuthHeader, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.Mux.ServeHTTP(rec, req)
	return rec
}

// Decode unmarshals a recorded response body
func Decode[T any](t testing.TB, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, jsonimpl.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
