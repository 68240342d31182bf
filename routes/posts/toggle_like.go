package posts

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"
)

func ToggleLikeDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Toggle Like",
		Description: "Likes the post if the session user has not liked it yet, otherwise removes the like.",
		Params:      []docs.Parameter{postIdParam()},
		Resp:        types.LikeState{},
	}
}

func (b Router) ToggleLike(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	id, ok := uapi.ParamUUID(r, "id")

	if !ok {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	liked, err := b.Store.ToggleLike(d.Context, d.Auth.UserID, id)

	if err != nil {
		return uapi.ErrorResponse("posts/toggle_like", err)
	}

	return uapi.HttpResponse{
		Json: types.LikeState{Liked: liked},
	}
}
