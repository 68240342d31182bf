package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &ValidationError{Fields: map[string]string{"content": "required"}}, http.StatusBadRequest},
		{"duplicate username", Conflict(ConstraintUniqueUsername, "taken"), http.StatusConflict},
		{"self follow", Conflict(ConstraintSelfFollow, "no"), http.StatusBadRequest},
		{"authentication", ErrAuthentication, http.StatusUnauthorized},
		{"unauthorized wrapped", fmt.Errorf("posts: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"not found", NotFound("post"), http.StatusNotFound},
		{"consistency", Inconsistent("post", "1", "author missing"), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("dial tcp: refused"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Status(c.err))
		})
	}
}

func TestValidationErrorListsEveryField(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"username": "too short",
		"email":    "invalid",
	}}

	require.Equal(t, "validation failed: email: invalid; username: too short", err.Error())
}
