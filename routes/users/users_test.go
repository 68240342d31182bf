package users

import (
	"context"
	"net/http"
	"testing"

	"connectx/routes/routestest"
	"connectx/types"

	"github.com/infinitybotlist/eureka/jsonimpl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *routestest.Env {
	env := routestest.New(t)
	env.Mount(Router{Store: env.Store})
	return env
}

func TestGetUserRedactsPassword(t *testing.T) {
	env := setup(t)
	alice, _ := env.Register(t, "alice")

	for _, name := range []string{"alice", "ALICE", "Alice"} {
		rec := env.Do(t, http.MethodGet, "/users/"+name, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var raw map[string]any
		require.NoError(t, jsonimpl.Unmarshal(rec.Body.Bytes(), &raw))
		assert.NotContains(t, raw, "password")
		assert.NotContains(t, rec.Body.String(), alice.Password)
		assert.Equal(t, alice.ID.String(), raw["id"])
	}
}

func TestGetUserMissing(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodGet, "/users/ghost", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodGet, "/users/ghost/posts", "", nil).Code)
}

func TestFollowToggleAndCounts(t *testing.T) {
	env := setup(t)
	alice, aliceToken := env.Register(t, "alice")
	_, bobToken := env.Register(t, "bob")

	rec := env.Do(t, http.MethodPost, "/users/alice/follow", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.Do(t, http.MethodPost, "/users/alice/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, routestest.Decode[types.FollowState](t, rec).Following)

	rec = env.Do(t, http.MethodGet, "/users/alice", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := routestest.Decode[types.Profile](t, rec)
	assert.Equal(t, alice.ID, profile.ID)
	assert.Equal(t, int64(1), profile.FollowerCount)
	assert.Equal(t, int64(0), profile.FollowingCount)
	require.NotNil(t, profile.FollowedByViewer)
	assert.True(t, *profile.FollowedByViewer)

	rec = env.Do(t, http.MethodGet, "/users/bob", aliceToken, nil)
	profile = routestest.Decode[types.Profile](t, rec)
	assert.Equal(t, int64(1), profile.FollowingCount)
	require.NotNil(t, profile.FollowedByViewer)
	assert.False(t, *profile.FollowedByViewer)

	rec = env.Do(t, http.MethodPost, "/users/alice/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, routestest.Decode[types.FollowState](t, rec).Following)

	rec = env.Do(t, http.MethodGet, "/users/alice", "", nil)
	profile = routestest.Decode[types.Profile](t, rec)
	assert.Equal(t, int64(0), profile.FollowerCount)
	assert.Nil(t, profile.FollowedByViewer)
}

func TestSelfFollowRejected(t *testing.T) {
	env := setup(t)
	alice, token := env.Register(t, "alice")

	rec := env.Do(t, http.MethodPost, "/users/Alice/follow", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_self_follow", routestest.Decode[types.ApiError](t, rec).Context["constraint"])

	follow, err := env.Store.GetFollow(context.Background(), alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, follow)
}

func TestFollowMissingUser(t *testing.T) {
	env := setup(t)
	_, token := env.Register(t, "alice")

	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodPost, "/users/ghost/follow", token, nil).Code)
}

func TestGetUserPosts(t *testing.T) {
	env := setup(t)
	alice, _ := env.Register(t, "alice")
	bob, _ := env.Register(t, "bob")
	ctx := context.Background()

	for _, author := range []*types.User{alice, bob, alice} {
		_, err := env.Store.CreatePost(ctx, types.NewPost{UserID: author.ID, ImageURL: "https://img.example.com/p.png"})
		require.NoError(t, err)
	}

	rec := env.Do(t, http.MethodGet, "/users/alice/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	feed := routestest.Decode[[]types.FeedPost](t, rec)
	require.Len(t, feed, 2)
	for _, p := range feed {
		assert.Equal(t, alice.ID, p.UserID)
	}

	rec = env.Do(t, http.MethodGet, "/users/alice", "", nil)
	assert.Equal(t, int64(2), routestest.Decode[types.Profile](t, rec).PostCount)
}
