package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category validation errors
var (
	ErrEmptyCategoryID   = errors.New("category ID cannot be empty")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
	ErrCategoryNameLong  = errors.New("category name must be at most 100 characters long")
)

// Category groups posts. It exists independently of any post.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCategory creates a validated Category with a fresh ID.
func NewCategory(name string) (*Category, error) {
	now := time.Now().UTC()
	c := &Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCategoryID
	}
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > 100 {
		return ErrCategoryNameLong
	}
	return nil
}

// Rename changes the category name and bumps UpdatedAt.
func (c *Category) Rename(name string) error {
	c.Name = strings.TrimSpace(name)
	c.UpdatedAt = time.Now().UTC()
	return c.Validate()
}
