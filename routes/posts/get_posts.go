package posts

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/storage"
	"connectx/types"
	"connectx/uapi"
)

func GetPostsDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Get Feed",
		Description: "Returns every post newest first, with its author and live like and comment counts. With a session each entry also reports likedByViewer.",
		Params:      []docs.Parameter{},
		Resp:        []types.FeedPost{},
		RespName:    "FeedPostList",
	}
}

func (b Router) GetPosts(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	feed, err := b.Store.GetPosts(d.Context, storage.FeedOptions{
		ViewerID: d.Auth.Viewer(),
	})

	if err != nil {
		return uapi.ErrorResponse("posts/get_posts", err)
	}

	return uapi.HttpResponse{
		Json: feed,
	}
}
