package mocks

import (
	"context"
	"database/sql"
	"strings"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

type memoryUserStore struct {
	db *MemoryDB
}

var _ store.UserStore = (*memoryUserStore)(nil)

func (s *memoryUserStore) WithTx(*sql.Tx) store.UserStore { return s }

func (s *memoryUserStore) Create(_ context.Context, user *domain.User) error {
	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpUserCreate); err != nil {
		return err
	}

	email := strings.ToLower(user.Email)
	for _, u := range s.db.state.users {
		if strings.ToLower(u.Email) == email {
			return store.ErrEmailExists
		}
	}

	stored := cloneUser(user)
	stored.Email = email
	stored.Password = ""
	s.db.state.users[user.ID] = stored
	return nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.state.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *memoryUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.db.state.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memoryUserStore) List(_ context.Context, spec query.Spec) ([]*domain.User, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	all := make([]*domain.User, 0, len(s.db.state.users))
	for _, u := range s.db.state.users {
		all = append(all, u)
	}
	page, total := listWindow(all, spec, userColumn)

	out := make([]*domain.User, len(page))
	for i, u := range page {
		out[i] = cloneUser(u)
	}
	return out, total, nil
}

func (s *memoryUserStore) Update(_ context.Context, user *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpUserUpdate); err != nil {
		return err
	}

	existing, ok := s.db.state.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	existing.Name = user.Name
	existing.Address = append([]byte(nil), user.Address...)
	if user.HashedPassword != "" {
		existing.HashedPassword = user.HashedPassword
	}
	existing.UpdatedAt = user.UpdatedAt
	return nil
}

func (s *memoryUserStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpUserDelete); err != nil {
		return err
	}

	if _, ok := s.db.state.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.db.state.users, id)
	for postID, p := range s.db.state.posts {
		if p.AuthorID == id {
			s.db.deletePostLocked(postID)
		}
	}
	return nil
}

func userColumn(u *domain.User, column string) any {
	switch column {
	case "id":
		return u.ID
	case "email":
		return u.Email
	case "name":
		return u.Name
	case "created_at":
		return u.CreatedAt
	case "updated_at":
		return u.UpdatedAt
	default:
		return nil
	}
}
