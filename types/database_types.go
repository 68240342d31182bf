package types

import (
	"time"

	"github.com/google/uuid"
)

// Base model shared by every persisted entity. Cursor is the insertion order
// and breaks createdAt ties when ordering feeds.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Cursor    int64     `gorm:"autoIncrement;uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

type User struct {
	BaseModel
	Username     string  `gorm:"not null" json:"username"`
	Email        string  `gorm:"not null" json:"email"`
	Password     string  `gorm:"not null" json:"-"`
	FullName     *string `json:"fullName"`
	ProfileImage *string `json:"profileImage"`
	Bio          *string `gorm:"type:text" json:"bio"`

	// Lower-cased copies backing the case-insensitive unique indexes
	UsernameKey string `gorm:"uniqueIndex;not null" json:"-"`
	EmailKey    string `gorm:"uniqueIndex;not null" json:"-"`
}

type Post struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	ImageURL string    `gorm:"not null" json:"imageUrl"`
	Caption  *string   `gorm:"type:text" json:"caption"`
}

type Like struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_user_post" json:"userId"`
	PostID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_user_post;index" json:"postId"`
}

type Comment struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	PostID  uuid.UUID `gorm:"type:uuid;not null;index" json:"postId"`
	Content string    `gorm:"type:text;not null" json:"content"`
}

type Follow struct {
	BaseModel
	FollowerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair" json:"followerId"`
	FollowingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index" json:"followingId"`
}
