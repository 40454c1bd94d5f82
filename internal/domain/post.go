package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Post validation errors
var (
	ErrEmptyPostID       = errors.New("post ID cannot be empty")
	ErrEmptyPostAuthorID = errors.New("post author ID cannot be empty")
	ErrEmptySlug         = errors.New("slug cannot be empty")
	ErrInvalidSlug       = errors.New("slug must not contain whitespace")
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrEmptyBody         = errors.New("body cannot be empty")
	ErrInvalidCategoryID = errors.New("category ID cannot be empty")
)

// Post is a piece of content written by one user and linked to zero or more
// categories. AuthorID is fixed at creation.
//
// CategoryIDs mirrors the relation edges of the post; it is populated from the
// relation store on reads and is the desired edge set on writes.
type Post struct {
	ID          uuid.UUID   `json:"id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Image       *string     `json:"image,omitempty"`
	AuthorID    uuid.UUID   `json:"author_id"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PostChanges holds the mutable post fields. Nil fields are left untouched.
// An Image pointing to an empty string clears the image.
type PostChanges struct {
	Slug  *string
	Title *string
	Body  *string
	Image *string
}

// NewPost creates a new Post authored by authorID. The category IDs are
// de-duplicated; existence of the categories is checked by the store layer.
func NewPost(
	authorID uuid.UUID,
	slug, title, body string,
	image *string,
	categoryIDs []uuid.UUID,
) (*Post, error) {
	ids, err := NormalizeCategoryIDs(categoryIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &Post{
		ID:          uuid.New(),
		Slug:        strings.TrimSpace(slug),
		Title:       strings.TrimSpace(title),
		Body:        body,
		Image:       normalizeImage(image),
		AuthorID:    authorID,
		CategoryIDs: ids,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}
	return post, nil
}

// Validate checks if the Post has valid data.
func (p *Post) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPostID
	}
	if p.AuthorID == uuid.Nil {
		return ErrEmptyPostAuthorID
	}
	if p.Slug == "" {
		return ErrEmptySlug
	}
	if strings.ContainsAny(p.Slug, " \t\r\n") {
		return ErrInvalidSlug
	}
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(p.Body) == "" {
		return ErrEmptyBody
	}
	for _, id := range p.CategoryIDs {
		if id == uuid.Nil {
			return ErrInvalidCategoryID
		}
	}
	return nil
}

// ApplyChanges copies the set fields of c onto the post and bumps UpdatedAt.
// AuthorID and ID are never modified.
func (p *Post) ApplyChanges(c PostChanges) error {
	if c.Slug != nil {
		p.Slug = strings.TrimSpace(*c.Slug)
	}
	if c.Title != nil {
		p.Title = strings.TrimSpace(*c.Title)
	}
	if c.Body != nil {
		p.Body = *c.Body
	}
	if c.Image != nil {
		p.Image = normalizeImage(c.Image)
	}
	p.UpdatedAt = time.Now().UTC()
	return p.Validate()
}

// NormalizeCategoryIDs removes duplicates while keeping first-seen order.
// A nil input yields an empty, non-nil slice.
func NormalizeCategoryIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, ErrInvalidCategoryID
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// DiffCategoryIDs returns the edges to add and to remove to turn current
// into desired.
func DiffCategoryIDs(current, desired []uuid.UUID) (toAdd, toRemove []uuid.UUID) {
	cur := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		cur[id] = struct{}{}
	}
	want := make(map[uuid.UUID]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
		if _, ok := cur[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if _, ok := want[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

func normalizeImage(image *string) *string {
	if image == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*image)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
