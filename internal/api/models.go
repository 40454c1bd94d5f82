package api

import (
	"encoding/json"
	"time"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/google/uuid"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string          `json:"email"    validate:"required,email"`
	Name     string          `json:"name"     validate:"required,max=100"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Address  json.RawMessage `json:"address,omitempty"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// UpdateUserRequest defines the payload for updating an account. Email is
// not accepted: it cannot change after registration.
type UpdateUserRequest struct {
	Name     *string         `json:"name,omitempty"     validate:"omitempty,min=1,max=100"`
	Password *string         `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Address  json.RawMessage `json:"address,omitempty"`
}

// CreatePostRequest defines the payload for creating a post.
type CreatePostRequest struct {
	Slug        string      `json:"slug"                   validate:"required,max=200"`
	Title       string      `json:"title"                  validate:"required,max=300"`
	Body        string      `json:"body"                   validate:"required"`
	Image       *string     `json:"image,omitempty"        validate:"omitempty,url"`
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty" validate:"omitempty,max=50"`
}

// UpdatePostRequest defines the payload for updating a post. Absent fields
// are left unchanged. category_ids replaces the whole set when present; an
// empty array removes every category.
type UpdatePostRequest struct {
	Slug        *string      `json:"slug,omitempty"         validate:"omitempty,min=1,max=200"`
	Title       *string      `json:"title,omitempty"        validate:"omitempty,min=1,max=300"`
	Body        *string      `json:"body,omitempty"         validate:"omitempty,min=1"`
	Image       *string      `json:"image,omitempty"        validate:"omitempty,url|len=0"`
	CategoryIDs *[]uuid.UUID `json:"category_ids,omitempty" validate:"omitempty,max=50"`
}

// CategoryRequest defines the payload for creating or renaming a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// UserResponse is the public view of an account. It never carries the
// password hash.
type UserResponse struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Address   json.RawMessage `json:"address,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AuthResponse defines the successful response for the login endpoint.
type AuthResponse struct {
	// Token is the bearer token for API authorization
	Token string `json:"token"`

	// ExpiresAt is the RFC 3339 timestamp when the token expires
	ExpiresAt string `json:"expires_at"`

	User UserResponse `json:"user"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func usersToResponse(users []*domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = userToResponse(u)
	}
	return out
}

// nonNilPosts keeps empty lists encoding as [] rather than null.
func nonNilPosts(posts []*domain.Post) []*domain.Post {
	if posts == nil {
		return []*domain.Post{}
	}
	for _, p := range posts {
		if p.CategoryIDs == nil {
			p.CategoryIDs = []uuid.UUID{}
		}
	}
	return posts
}

func nonNilCategories(categories []*domain.Category) []*domain.Category {
	if categories == nil {
		return []*domain.Category{}
	}
	return categories
}
