package uapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParamUUID reads a uuid path parameter. A malformed id cannot name an
// entity, so callers answer 404 when ok is false.
func ParamUUID(r *http.Request, name string) (id uuid.UUID, ok bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Viewer is the session user id, or nil on an anonymous request
func (a AuthData) Viewer() *uuid.UUID {
	if !a.Authorized {
		return nil
	}
	id := a.UserID
	return &id
}
