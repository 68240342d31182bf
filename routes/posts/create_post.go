package posts

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"
)

func CreatePostDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Create Post",
		Description: "Publishes a post as the session user.",
		Req:         types.CreatePost{},
		Resp:        types.Post{},
		RespStatus:  http.StatusCreated,
	}
}

func (b Router) CreatePost(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	raw, resp, ok := uapi.DecodeBody(r)

	if !ok {
		return resp
	}

	payload, err := b.Schema.Post(raw)

	if err != nil {
		return uapi.ErrorResponse("posts/create_post", err)
	}

	post, err := b.Store.CreatePost(d.Context, types.NewPost{
		UserID:   d.Auth.UserID,
		ImageURL: payload.ImageURL,
		Caption:  payload.Caption,
	})

	if err != nil {
		return uapi.ErrorResponse("posts/create_post", err)
	}

	return uapi.HttpResponse{
		Status: http.StatusCreated,
		Json:   post,
	}
}
