package posts

import (
	"connectx/api"
	docs "connectx/doclib"
	"connectx/schema"
	"connectx/storage"
	"connectx/uapi"

	"github.com/go-chi/chi/v5"
)

const tagName = "Posts"

type Router struct {
	Store  storage.Storage
	Schema *schema.Schema
}

func (b Router) Tag() (string, string) {
	return tagName, "The feed. Create posts, like them and comment on them."
}

func (b Router) Routes(r *chi.Mux) {
	uapi.Route{
		Pattern:      "/posts",
		OpId:         "get_posts",
		Method:       uapi.GET,
		Docs:         GetPostsDocs,
		Handler:      b.GetPosts,
		Auth:         []uapi.AuthType{{Type: api.AuthTypeUser}},
		AuthOptional: true,
	}.Route(r)

	uapi.Route{
		Pattern: "/posts",
		OpId:    "create_post",
		Method:  uapi.POST,
		Docs:    CreatePostDocs,
		Handler: b.CreatePost,
		Auth:    []uapi.AuthType{{Type: api.AuthTypeUser}},
	}.Route(r)

	uapi.Route{
		Pattern:      "/posts/{id}",
		OpId:         "get_post",
		Method:       uapi.GET,
		Docs:         GetPostDocs,
		Handler:      b.GetPost,
		Auth:         []uapi.AuthType{{Type: api.AuthTypeUser}},
		AuthOptional: true,
	}.Route(r)

	uapi.Route{
		Pattern: "/posts/{id}/like",
		OpId:    "toggle_like",
		Method:  uapi.POST,
		Docs:    ToggleLikeDocs,
		Handler: b.ToggleLike,
		Auth:    []uapi.AuthType{{Type: api.AuthTypeUser}},
	}.Route(r)

	uapi.Route{
		Pattern: "/posts/{id}/comment",
		OpId:    "create_comment",
		Method:  uapi.POST,
		Docs:    CreateCommentDocs,
		Handler: b.CreateComment,
		Auth:    []uapi.AuthType{{Type: api.AuthTypeUser}},
	}.Route(r)

	uapi.Route{
		Pattern: "/posts/{id}/comments",
		OpId:    "get_comments",
		Method:  uapi.GET,
		Docs:    GetCommentsDocs,
		Handler: b.GetComments,
	}.Route(r)
}

func postIdParam() docs.Parameter {
	return docs.Parameter{
		Name:        "id",
		In:          "path",
		Description: "The ID of the post",
		Required:    true,
		Schema:      docs.IdSchema,
	}
}
