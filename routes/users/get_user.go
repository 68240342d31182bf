package users

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"

	"github.com/go-chi/chi/v5"
)

func GetUserDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Get User",
		Description: "Returns a public profile with post, follower and following counts. With a session it also reports whether the session user follows this user.",
		Params:      []docs.Parameter{usernameParam()},
		Resp:        types.Profile{},
	}
}

func (b Router) GetUser(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	user, err := b.Store.GetUserByUsername(d.Context, chi.URLParam(r, "username"))

	if err != nil {
		return uapi.ErrorResponse("users/get_user", err)
	}

	if user == nil {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	profile := types.Profile{PublicUser: user.Public()}

	if profile.PostCount, err = b.Store.CountPostsByUser(d.Context, user.ID); err != nil {
		return uapi.ErrorResponse("users/get_user", err)
	}

	if profile.FollowerCount, err = b.Store.CountFollowers(d.Context, user.ID); err != nil {
		return uapi.ErrorResponse("users/get_user", err)
	}

	if profile.FollowingCount, err = b.Store.CountFollowing(d.Context, user.ID); err != nil {
		return uapi.ErrorResponse("users/get_user", err)
	}

	if d.Auth.Authorized {
		follow, err := b.Store.GetFollow(d.Context, d.Auth.UserID, user.ID)

		if err != nil {
			return uapi.ErrorResponse("users/get_user", err)
		}

		following := follow != nil
		profile.FollowedByViewer = &following
	}

	return uapi.HttpResponse{
		Json: profile,
	}
}
