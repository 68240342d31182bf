package posts

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"
)

func GetCommentsDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Get Comments",
		Description: "Returns the comments on a post newest first, each with its author.",
		Params:      []docs.Parameter{postIdParam()},
		Resp:        []types.CommentWithUser{},
		RespName:    "CommentList",
	}
}

func (b Router) GetComments(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	id, ok := uapi.ParamUUID(r, "id")

	if !ok {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	post, err := b.Store.GetPostById(d.Context, id)

	if err != nil {
		return uapi.ErrorResponse("posts/get_comments", err)
	}

	if post == nil {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	comments, err := b.Store.GetCommentsByPostId(d.Context, id)

	if err != nil {
		return uapi.ErrorResponse("posts/get_comments", err)
	}

	return uapi.HttpResponse{
		Json: comments,
	}
}
