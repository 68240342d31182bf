package account

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"
)

func LoginDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Login",
		Description: "Exchanges a username and password for a session. A wrong username and a wrong password fail the same way.",
		Req:         types.Login{},
		Resp:        types.AuthSession{},
	}
}

func (b Router) Login(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	raw, resp, ok := uapi.DecodeBody(r)

	if !ok {
		return resp
	}

	payload, err := b.Schema.Login(raw)

	if err != nil {
		return uapi.ErrorResponse("account/login", err)
	}

	user, sess, err := b.Auth.Login(d.Context, payload)

	if err != nil {
		return uapi.ErrorResponse("account/login", err)
	}

	return uapi.HttpResponse{
		Cookies: []*http.Cookie{b.cookie(sess)},
		Json: types.AuthSession{
			Token:     sess.Token,
			ExpiresAt: sess.ExpiresAt,
			User:      user.Public(),
		},
	}
}
