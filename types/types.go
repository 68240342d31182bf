package types

import (
	"time"

	"github.com/google/uuid"
)

type Response struct {
	Success bool              `json:"success" description:"Indicates if the request was successful"`
	Context map[string]string `json:"context,omitempty" description:"Context of the response"`
	Message *string           `json:"message,omitempty" description:"Message of the response"`
	JSON    any               `json:"json,omitempty" description:"JSON data of the response"`
}

// ApiError is the body of every non-2xx response
type ApiError struct {
	Message string            `json:"message" description:"Message of the error"`
	Context map[string]string `json:"context,omitempty" description:"Per-field or extra context of the error"`
}

// PublicUser is a User as it may cross into a response. It has no credential field.
type PublicUser struct {
	ID           uuid.UUID `json:"id" description:"The ID of the user"`
	Username     string    `json:"username" description:"The username of the user"`
	Email        string    `json:"email" description:"The email of the user"`
	FullName     *string   `json:"fullName" description:"Display name"`
	ProfileImage *string   `json:"profileImage" description:"Avatar URL"`
	Bio          *string   `json:"bio" description:"Profile bio"`
	CreatedAt    time.Time `json:"createdAt" description:"When the user registered"`
}

// Author is the subset of a user embedded in feed entries and comments
type Author struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     *string   `json:"fullName"`
	ProfileImage *string   `json:"profileImage"`
}

// FeedPost is a post joined with its author and live counts
type FeedPost struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	ImageURL      string    `json:"imageUrl"`
	Caption       *string   `json:"caption"`
	CreatedAt     time.Time `json:"createdAt"`
	LikeCount     int64     `json:"likeCount" description:"Number of likes at read time"`
	CommentCount  int64     `json:"commentCount" description:"Number of comments at read time"`
	LikedByViewer *bool     `json:"likedByViewer,omitempty" description:"Whether the current session user liked the post"`
	User          Author    `json:"user"`
}

// CommentWithUser is a comment joined with its author
type CommentWithUser struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	PostID    uuid.UUID `json:"postId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	User      Author    `json:"user"`
}

// Profile is a public user plus relationship counts derived at read time
type Profile struct {
	PublicUser
	PostCount        int64 `json:"postCount"`
	FollowerCount    int64 `json:"followerCount"`
	FollowingCount   int64 `json:"followingCount"`
	FollowedByViewer *bool `json:"followedByViewer,omitempty"`
}

type LikeState struct {
	Liked bool `json:"liked" description:"Whether the post is liked after the toggle"`
}

type FollowState struct {
	Following bool `json:"following" description:"Whether the user is followed after the toggle"`
}

// AuthSession is returned by register and login
type AuthSession struct {
	Token     string     `json:"token" description:"Session token, also set as a cookie"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      PublicUser `json:"user"`
}

// Public strips the credential from a user. Every response carrying a user goes through here.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
		Bio:          u.Bio,
		CreatedAt:    u.CreatedAt,
	}
}

func (u *User) Author() Author {
	return Author{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
	}
}
