package users

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/storage"
	"connectx/types"
	"connectx/uapi"

	"github.com/go-chi/chi/v5"
)

func GetUserPostsDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Get User Posts",
		Description: "Returns the posts by a user newest first, in feed shape.",
		Params:      []docs.Parameter{usernameParam()},
		Resp:        []types.FeedPost{},
		RespName:    "FeedPostList",
	}
}

func (b Router) GetUserPosts(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	user, err := b.Store.GetUserByUsername(d.Context, chi.URLParam(r, "username"))

	if err != nil {
		return uapi.ErrorResponse("users/get_user_posts", err)
	}

	if user == nil {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	feed, err := b.Store.GetPosts(d.Context, storage.FeedOptions{
		AuthorID: &user.ID,
		ViewerID: d.Auth.Viewer(),
	})

	if err != nil {
		return uapi.ErrorResponse("users/get_user_posts", err)
	}

	return uapi.HttpResponse{
		Json: feed,
	}
}
