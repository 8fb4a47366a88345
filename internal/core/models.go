package core

import (
	"slices"
	"time"
)

const (
	PostsCollection    = "InstaPosts"
	ProfilesCollection = "InstaUsers"
)

// Identity is the authenticated actor, supplied by an IdentityProvider.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Post is a normalized feed entry.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"userId"`
	AuthorName   string    `json:"userName"`
	AuthorAvatar string    `json:"userProfile"`
	Text         string    `json:"text,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Likes        []string  `json:"likes"`
	Comments     []Comment `json:"comments"`
}

// LikedBy reports whether userID is in the like set.
func (p Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

type Comment struct {
	AuthorID     string    `json:"userId" validate:"required"`
	AuthorName   string    `json:"userName"`
	AuthorAvatar string    `json:"userProfile"`
	Text         string    `json:"text" validate:"required"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Profile struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	PhotoURL string `json:"photoURL" validate:"required,url"`
}

// Document is a raw record as the store delivers it.
type Document struct {
	ID     string
	Fields map[string]any
}
