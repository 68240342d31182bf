package types

import "github.com/google/uuid"

// Request bodies. The msg tags are shown to clients next to the failing rule.

type RegisterUser struct {
	Username     string  `json:"username" validate:"required,min=3,max=32,nospaces" msg:"Username must be at least 3 characters without spaces"`
	Password     string  `json:"password" validate:"required,min=6,max=72,maxbytes=72" msg:"Password must be 6 to 72 characters"`
	Email        string  `json:"email" validate:"required,email" msg:"Email must be a valid email address"`
	FullName     *string `json:"fullName" validate:"omitempty,max=64" msg:"Full name must be at most 64 characters"`
	ProfileImage *string `json:"profileImage" validate:"omitempty,httporhttps" msg:"Profile image must be an http(s) URL"`
	Bio          *string `json:"bio" validate:"omitempty,max=512" msg:"Bio must be at most 512 characters"`
}

type Login struct {
	Username string `json:"username" validate:"required,min=3" msg:"Username must be at least 3 characters"`
	Password string `json:"password" validate:"required,min=6" msg:"Password must be at least 6 characters"`
}

type CreatePost struct {
	ImageURL string  `json:"imageUrl" validate:"required,httporhttps" msg:"Image URL must be an http(s) URL"`
	Caption  *string `json:"caption" validate:"omitempty,max=2200" msg:"Caption must be at most 2200 characters"`
}

type CreateComment struct {
	Content string `json:"content" validate:"required,notblank,max=2200" msg:"Comment cannot be empty"`
}

// Storage inputs. Server-assigned fields (id, createdAt) are never part of these.

type NewUser struct {
	Username     string
	Email        string
	Password     string // already hashed
	FullName     *string
	ProfileImage *string
	Bio          *string
}

type NewPost struct {
	UserID   uuid.UUID
	ImageURL string
	Caption  *string
}

type NewComment struct {
	UserID  uuid.UUID
	PostID  uuid.UUID
	Content string
}
