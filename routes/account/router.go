package account

import (
	"net/http"
	"time"

	"connectx/api"
	"connectx/auth"
	"connectx/schema"
	"connectx/sessions"
	"connectx/uapi"

	"github.com/go-chi/chi/v5"
)

const tagName = "Auth"

type Router struct {
	Auth       *auth.Manager
	Schema     *schema.Schema
	CookieName string

	// Marks the session cookie Secure, set when serving over https
	SecureCookie bool
}

func (b Router) Tag() (string, string) {
	return tagName, "Register, log in and out, and look up the session user."
}

func (b Router) Routes(r *chi.Mux) {
	uapi.Route{
		Pattern: "/auth/register",
		OpId:    "register",
		Method:  uapi.POST,
		Docs:    RegisterDocs,
		Handler: b.Register,
	}.Route(r)

	uapi.Route{
		Pattern: "/auth/login",
		OpId:    "login",
		Method:  uapi.POST,
		Docs:    LoginDocs,
		Handler: b.Login,
	}.Route(r)

	uapi.Route{
		Pattern: "/auth/logout",
		OpId:    "logout",
		Method:  uapi.POST,
		Docs:    LogoutDocs,
		Handler: b.Logout,
		Auth:    []uapi.AuthType{{Type: api.AuthTypeUser}},
	}.Route(r)

	uapi.Route{
		Pattern: "/auth/user",
		OpId:    "current_user",
		Method:  uapi.GET,
		Docs:    CurrentUserDocs,
		Handler: b.CurrentUser,
		Auth:    []uapi.AuthType{{Type: api.AuthTypeUser}},
	}.Route(r)
}

func (b Router) cookie(sess *sessions.Session) *http.Cookie {
	return &http.Cookie{
		Name:     b.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   b.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (b Router) clearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     b.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
