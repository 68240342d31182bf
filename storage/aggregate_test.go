package storage

import (
	"testing"
	"time"

	"connectx/apperr"
	"connectx/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(author uuid.UUID, cursor int64, at time.Time) types.Post {
	return types.Post{
		BaseModel: types.BaseModel{ID: uuid.New(), Cursor: cursor, CreatedAt: at},
		UserID:    author,
		ImageURL:  "https://example.com/img.jpg",
	}
}

func TestAssembleFeedOrdersAndCounts(t *testing.T) {
	alice := &types.User{BaseModel: types.BaseModel{ID: uuid.New()}, Username: "alice", Password: "hash"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p1 := post(alice.ID, 1, base)
	p2 := post(alice.ID, 2, base.Add(time.Minute))
	p3 := post(alice.ID, 3, base.Add(2*time.Minute))
	tie := post(alice.ID, 4, base)

	likes := []types.Like{{PostID: p1.ID}, {PostID: p1.ID}, {PostID: p3.ID}}

	feed, err := AssembleFeed(FeedParts{
		Posts:         []types.Post{p1, p2, p3, tie},
		Authors:       map[uuid.UUID]*types.User{alice.ID: alice},
		LikeCounts:    GroupCount(likes, func(l types.Like) uuid.UUID { return l.PostID }),
		CommentCounts: map[uuid.UUID]int64{p2.ID: 5},
	})
	require.NoError(t, err)
	require.Len(t, feed, 4)

	assert.Equal(t, []uuid.UUID{p3.ID, p2.ID, tie.ID, p1.ID}, []uuid.UUID{feed[0].ID, feed[1].ID, feed[2].ID, feed[3].ID})
	assert.Equal(t, int64(1), feed[0].LikeCount)
	assert.Equal(t, int64(5), feed[1].CommentCount)
	assert.Equal(t, int64(2), feed[3].LikeCount)
	assert.Equal(t, int64(0), feed[2].LikeCount)
	assert.Equal(t, "alice", feed[0].User.Username)
	assert.Nil(t, feed[0].LikedByViewer)
}

func TestAssembleFeedMissingAuthorIsFatal(t *testing.T) {
	p := post(uuid.New(), 1, time.Now())

	_, err := AssembleFeed(FeedParts{Posts: []types.Post{p}, Authors: map[uuid.UUID]*types.User{}})

	var ice *apperr.InternalConsistencyError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "post", ice.Entity)
}

func TestAssembleCommentsNewestFirst(t *testing.T) {
	bob := &types.User{BaseModel: types.BaseModel{ID: uuid.New()}, Username: "bob"}
	at := time.Now()

	older := types.Comment{BaseModel: types.BaseModel{ID: uuid.New(), Cursor: 1, CreatedAt: at}, UserID: bob.ID, Content: "first"}
	newer := types.Comment{BaseModel: types.BaseModel{ID: uuid.New(), Cursor: 2, CreatedAt: at}, UserID: bob.ID, Content: "second"}

	out, err := AssembleComments([]types.Comment{older, newer}, map[uuid.UUID]*types.User{bob.ID: bob})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "second", out[0].Content)
	assert.Equal(t, "bob", out[1].User.Username)

	_, err = AssembleComments([]types.Comment{older}, nil)
	var ice *apperr.InternalConsistencyError
	require.ErrorAs(t, err, &ice)
}
