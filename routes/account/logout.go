package account

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/uapi"
)

func LogoutDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Logout",
		Description: "Revokes the current session and clears the session cookie.",
		RespStatus:  http.StatusNoContent,
	}
}

func (b Router) Logout(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	if err := b.Auth.Logout(d.Context, d.Auth.Token); err != nil {
		return uapi.ErrorResponse("account/logout", err)
	}

	return uapi.HttpResponse{
		Status:  http.StatusNoContent,
		Cookies: []*http.Cookie{b.clearCookie()},
	}
}
