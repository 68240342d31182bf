// Package storage defines the entity store contract. Engines live in the
// memory and postgres subpackages; no other package touches the data store.
package storage

import (
	"context"

	"connectx/types"

	"github.com/google/uuid"
)

// Storage is the sole owner of entity persistence.
//
// Point and natural-key lookups return (nil, nil) when the entity is absent.
// Creation returns *apperr.ConstraintViolation when a uniqueness constraint
// would be broken. Aggregation reads return *apperr.InternalConsistencyError
// when a join target is missing.
type Storage interface {
	// Users
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	CreateUser(ctx context.Context, u types.NewUser) (*types.User, error)

	// Posts
	GetPosts(ctx context.Context, opts FeedOptions) ([]types.FeedPost, error)
	GetPostById(ctx context.Context, id uuid.UUID) (*types.Post, error)
	CreatePost(ctx context.Context, p types.NewPost) (*types.Post, error)
	CountPostsByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Likes
	GetLike(ctx context.Context, userID, postID uuid.UUID) (*types.Like, error)
	CreateLike(ctx context.Context, userID, postID uuid.UUID) (*types.Like, error)
	RemoveLike(ctx context.Context, userID, postID uuid.UUID) error
	ToggleLike(ctx context.Context, userID, postID uuid.UUID) (bool, error)

	// Comments
	GetCommentsByPostId(ctx context.Context, postID uuid.UUID) ([]types.CommentWithUser, error)
	CreateComment(ctx context.Context, c types.NewComment) (*types.Comment, error)

	// Follows
	GetFollow(ctx context.Context, followerID, followingID uuid.UUID) (*types.Follow, error)
	CreateFollow(ctx context.Context, followerID, followingID uuid.UUID) (*types.Follow, error)
	RemoveFollow(ctx context.Context, followerID, followingID uuid.UUID) error
	ToggleFollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)

	Close() error
}

// FeedOptions narrows GetPosts. The zero value is the global feed.
type FeedOptions struct {
	// Only posts by this user
	AuthorID *uuid.UUID

	// Only this post
	PostID *uuid.UUID

	// When set, each entry reports whether this user liked it
	ViewerID *uuid.UUID
}
