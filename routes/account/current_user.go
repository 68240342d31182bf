package account

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"
)

func CurrentUserDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Current User",
		Description: "Returns the user bound to the session.",
		Resp:        types.PublicUser{},
	}
}

func (b Router) CurrentUser(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	return uapi.HttpResponse{
		Json: d.Auth.User.Public(),
	}
}
