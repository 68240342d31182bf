package users

import (
	"connectx/api"
	docs "connectx/doclib"
	"connectx/storage"
	"connectx/uapi"

	"github.com/go-chi/chi/v5"
)

const tagName = "Users"

type Router struct {
	Store storage.Storage
}

func (b Router) Tag() (string, string) {
	return tagName, "Public profiles and the follow graph."
}

func (b Router) Routes(r *chi.Mux) {
	uapi.Route{
		Pattern:      "/users/{username}",
		OpId:         "get_user",
		Method:       uapi.GET,
		Docs:         GetUserDocs,
		Handler:      b.GetUser,
		Auth:         []uapi.AuthType{{Type: api.AuthTypeUser}},
		AuthOptional: true,
	}.Route(r)

	uapi.Route{
		Pattern:      "/users/{username}/posts",
		OpId:         "get_user_posts",
		Method:       uapi.GET,
		Docs:         GetUserPostsDocs,
		Handler:      b.GetUserPosts,
		Auth:         []uapi.AuthType{{Type: api.AuthTypeUser}},
		AuthOptional: true,
	}.Route(r)

	uapi.Route{
		Pattern: "/users/{username}/follow",
		OpId:    "toggle_follow",
		Method:  uapi.POST,
		Docs:    ToggleFollowDocs,
		Handler: b.ToggleFollow,
		Auth:    []uapi.AuthType{{Type: api.AuthTypeUser}},
	}.Route(r)
}

func usernameParam() docs.Parameter {
	return docs.Parameter{
		Name:        "username",
		In:          "path",
		Description: "The username, matched case-insensitively",
		Required:    true,
		Schema:      docs.StringSchema,
	}
}
