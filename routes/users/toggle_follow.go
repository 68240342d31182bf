package users

import (
	"net/http"

	"connectx/apperr"
	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"

	"github.com/go-chi/chi/v5"
)

func ToggleFollowDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Toggle Follow",
		Description: "Follows the user if the session user does not follow them yet, otherwise unfollows. Following yourself is rejected with 400.",
		Params:      []docs.Parameter{usernameParam()},
		Resp:        types.FollowState{},
	}
}

func (b Router) ToggleFollow(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	target, err := b.Store.GetUserByUsername(d.Context, chi.URLParam(r, "username"))

	if err != nil {
		return uapi.ErrorResponse("users/toggle_follow", err)
	}

	if target == nil {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	if target.ID == d.Auth.UserID {
		return uapi.ErrorResponse("users/toggle_follow", apperr.Conflict(apperr.ConstraintSelfFollow, "you cannot follow yourself"))
	}

	following, err := b.Store.ToggleFollow(d.Context, d.Auth.UserID, target.ID)

	if err != nil {
		return uapi.ErrorResponse("users/toggle_follow", err)
	}

	return uapi.HttpResponse{
		Json: types.FollowState{Following: following},
	}
}
