package account

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"
)

func RegisterDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Register",
		Description: "Creates an account and logs it in. Usernames and emails are unique regardless of case.",
		Req:         types.RegisterUser{},
		Resp:        types.AuthSession{},
		RespStatus:  http.StatusCreated,
	}
}

func (b Router) Register(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	raw, resp, ok := uapi.DecodeBody(r)

	if !ok {
		return resp
	}

	payload, err := b.Schema.User(raw)

	if err != nil {
		return uapi.ErrorResponse("account/register", err)
	}

	user, sess, err := b.Auth.Register(d.Context, payload)

	if err != nil {
		return uapi.ErrorResponse("account/register", err)
	}

	return uapi.HttpResponse{
		Status:  http.StatusCreated,
		Cookies: []*http.Cookie{b.cookie(sess)},
		Json: types.AuthSession{
			Token:     sess.Token,
			ExpiresAt: sess.ExpiresAt,
			User:      user.Public(),
		},
	}
}
