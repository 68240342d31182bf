package posts

import (
	"net/http"

	docs "connectx/doclib"
	"connectx/types"
	"connectx/uapi"
)

func CreateCommentDocs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Comment On Post",
		Description: "Adds a comment by the session user. Blank content is rejected.",
		Params:      []docs.Parameter{postIdParam()},
		Req:         types.CreateComment{},
		Resp:        types.Comment{},
		RespStatus:  http.StatusCreated,
	}
}

func (b Router) CreateComment(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	id, ok := uapi.ParamUUID(r, "id")

	if !ok {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	raw, resp, ok := uapi.DecodeBody(r)

	if !ok {
		return resp
	}

	payload, err := b.Schema.Comment(raw)

	if err != nil {
		return uapi.ErrorResponse("posts/create_comment", err)
	}

	comment, err := b.Store.CreateComment(d.Context, types.NewComment{
		UserID:  d.Auth.UserID,
		PostID:  id,
		Content: payload.Content,
	})

	if err != nil {
		return uapi.ErrorResponse("posts/create_comment", err)
	}

	return uapi.HttpResponse{
		Status: http.StatusCreated,
		Json:   comment,
	}
}
