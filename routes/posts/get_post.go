package posts

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/storage"
	"connectx/types"
	"connectx/uapi"
)

func GetPostDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Get Post",
		Description: "Returns a single post in feed shape.",
		Params:      []docs.Parameter{postIdParam()},
		Resp:        types.FeedPost{},
	}
}

func (b Router) GetPost(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	id, ok := uapi.ParamUUID(r, "id")

	if !ok {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	feed, err := b.Store.GetPosts(d.Context, storage.FeedOptions{
		PostID:   &id,
		ViewerID: d.Auth.Viewer(),
	})

	if err != nil {
		return uapi.ErrorResponse("posts/get_post", err)
	}

	if len(feed) == 0 {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	return uapi.HttpResponse{
		Json: feed[0],
	}
}
