package api

import (
	"errors"
	"net/http"
	"strings"

	"connectx/apperr"
	"connectx/auth"
	"connectx/constants"
	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"

	"go.uber.org/zap"
)

const (
	AuthTypeUser = "user"

	// Header carrying the session token when cookies are not used
	AuthHeader = "Authorization"
)

type DefaultResponder struct{}

func (d DefaultResponder) New(err string, ctx map[string]string) any {
	return types.ApiError{
		Message: err,
		Context: ctx,
	}
}

type Options struct {
	Auth       *auth.Manager
	CookieName string
	Logger     *zap.Logger
}

// SessionToken reads the token from "Authorization: Bearer <token>" or the session cookie
func SessionToken(req *http.Request, cookieName string) string {
	if h := req.Header.Get(AuthHeader); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return strings.TrimSpace(h)
	}

	if c, err := req.Cookie(cookieName); err == nil {
		return c.Value
	}

	return ""
}

// Authorizer returns the uapi hook binding the session user to a request
func Authorizer(mgr *auth.Manager, cookieName string) func(r uapi.Route, req *http.Request) (uapi.AuthData, uapi.HttpResponse, bool) {
	return func(r uapi.Route, req *http.Request) (uapi.AuthData, uapi.HttpResponse, bool) {
		if len(r.Auth) == 0 {
			return uapi.AuthData{}, uapi.HttpResponse{}, true
		}

		token := SessionToken(req, cookieName)

		user, err := mgr.CurrentUser(req.Context(), token)
		if err != nil {
			if errors.Is(err, apperr.ErrUnauthorized) {
				if r.AuthOptional {
					return uapi.AuthData{}, uapi.HttpResponse{}, true
				}

				return uapi.AuthData{}, uapi.HttpResponse{
					Status:  http.StatusUnauthorized,
					Data:    constants.Unauthorized,
					Headers: map[string]string{"X-Session-Invalid": "true"},
				}, false
			}

			return uapi.AuthData{}, uapi.ErrorResponse("api/authorize", err), false
		}

		return uapi.AuthData{
			Authorized: true,
			UserID:     user.ID,
			User:       user,
			Token:      token,
		}, uapi.HttpResponse{}, true
	}
}

func Setup(opts Options) {
	if opts.CookieName == "" {
		opts.CookieName = "connectx_session"
	}

	uapi.SetupState(uapi.UAPIState{
		Logger:    opts.Logger,
		Authorize: Authorizer(opts.Auth, opts.CookieName),
		AuthTypeMap: map[string]string{
			AuthTypeUser: "User",
		},
		Constants: &uapi.UAPIConstants{
			ResourceNotFound:    constants.ResourceNotFound,
			BadRequest:          constants.BadRequest,
			Forbidden:           constants.Forbidden,
			Unauthorized:        constants.Unauthorized,
			InternalServerError: constants.InternalServerError,
			MethodNotAllowed:    constants.MethodNotAllowed,
			BodyRequired:        constants.BodyRequired,
		},
		DefaultResponder: DefaultResponder{},
		BaseSanityCheck: func(r uapi.Route) error {
			if r.AuthOptional && len(r.Auth) == 0 {
				return errors.New("AuthOptional set without any auth types")
			}
			return nil
		},
	})
}

// SetupDocs prepares the OpenAPI document. Must run before any router registers routes.
func SetupDocs(url string, logger *zap.Logger) {
	docs.DocsSetupData = &docs.SetupData{
		URL:         url,
		ErrorStruct: types.ApiError{},
		Logger:      logger,
		Info: docs.Info{
			Title:       "ConnectX",
			Version:     "1.0",
			Description: "Share photos, like, comment and follow.",
			Contact: docs.Contact{
				Name: "ConnectX",
				URL:  url,
			},
			License: docs.License{
				Name: "AGPL-3.0",
				URL:  "https://opensource.org/licenses/AGPL-3.0",
			},
		},
	}

	docs.Setup()
	docs.AddSecuritySchema("User", AuthHeader, "Session token from login or register, as 'Bearer <token>'. The session cookie is accepted too.")
}
