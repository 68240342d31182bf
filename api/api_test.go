package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "raw header", header: "abc", want: "abc"},
		{name: "cookie", cookie: "fromcookie", want: "fromcookie"},
		{name: "header wins", header: "Bearer abc", cookie: "fromcookie", want: "abc"},
		{name: "none", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(AuthHeader, tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sess", Value: tc.cookie})
			}

			assert.Equal(t, tc.want, SessionToken(req, "sess"))
		})
	}
}
