package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/redact"
	"github.com/corvid-labs/postboard/internal/service/auth"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

// PasswordManager hashes new passwords and checks submitted ones.
type PasswordManager interface {
	auth.PasswordHasher
	auth.PasswordVerifier
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Address  json.RawMessage
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// UserService provides account operations
type UserService interface {
	// Register creates a new account
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)

	// Login checks credentials and issues an access token
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ListUsers returns users matching params
	ListUsers(ctx context.Context, params query.Params) (*ListResult[*domain.User], error)

	// UpdateUser modifies the principal's own account. Email is immutable.
	UpdateUser(ctx context.Context, p *domain.Principal, userID uuid.UUID, changes domain.UserChanges) (*domain.User, error)

	// DeleteUser removes the principal's own account with all its posts
	DeleteUser(ctx context.Context, p *domain.Principal, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	tx         store.TxRunner
	users      store.UserStore
	sync       *RelationSync
	passwords  PasswordManager
	tokens     auth.TokenService
	authorizer OwnershipAuthorizer
	tokenTTL   time.Duration
	builder    *query.Builder
	now        func() time.Time
	logger     *slog.Logger
}

// UserServiceDeps groups the collaborators of UserServiceImpl.
type UserServiceDeps struct {
	Tx         store.TxRunner
	Users      store.UserStore
	Sync       *RelationSync
	Passwords  PasswordManager
	Tokens     auth.TokenService
	Authorizer OwnershipAuthorizer
	TokenTTL   time.Duration
	Logger     *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(deps UserServiceDeps) (UserService, error) {
	switch {
	case deps.Tx == nil:
		return nil, errors.New("user service: tx runner cannot be nil")
	case deps.Users == nil:
		return nil, errors.New("user service: user store cannot be nil")
	case deps.Sync == nil:
		return nil, errors.New("user service: relation sync cannot be nil")
	case deps.Passwords == nil:
		return nil, errors.New("user service: password manager cannot be nil")
	case deps.Tokens == nil:
		return nil, errors.New("user service: token service cannot be nil")
	case deps.Authorizer == nil:
		return nil, errors.New("user service: authorizer cannot be nil")
	case deps.TokenTTL <= 0:
		return nil, fmt.Errorf("user service: token lifetime must be positive, got %s", deps.TokenTTL)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		tx:         deps.Tx,
		users:      deps.Users,
		sync:       deps.Sync,
		passwords:  deps.Passwords,
		tokens:     deps.Tokens,
		authorizer: deps.Authorizer,
		tokenTTL:   deps.TokenTTL,
		builder:    query.NewBuilder(),
		now:        time.Now,
		logger:     logger.With("component", "user_service"),
	}, nil
}

// Register creates a new account. The password is hashed before the user
// reaches the store; a taken email yields store.ErrEmailExists.
func (s *UserServiceImpl) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	user, err := domain.NewUser(in.Email, in.Name, in.Password, in.Address)
	if err != nil {
		return nil, validationFailed("user", err)
	}

	if err := s.hashPassword(user); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.users.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.DebugContext(ctx, "attempted to register with existing email")
		} else {
			s.logger.ErrorContext(ctx, "failed to save user", redact.ErrorAttr(err))
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login checks credentials and issues an access token. An unknown email and
// a wrong password both yield ErrInvalidCredentials.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.DebugContext(ctx, "login for unknown email")
			return nil, ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "failed to load user for login", redact.ErrorAttr(err))
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		s.logger.DebugContext(ctx, "login with wrong password",
			slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	token, err := s.tokens.Issue(ctx, auth.IdentityClaims{SubjectID: user.ID, Email: user.Email}, s.tokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue token", redact.ErrorAttr(err))
		return nil, NewServiceError("user", "login", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: issuedAt.Add(s.tokenTTL),
		User:      user,
	}, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to retrieve user",
				slog.String("user_id", userID.String()),
				redact.ErrorAttr(err))
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// ListUsers returns users matching params
func (s *UserServiceImpl) ListUsers(
	ctx context.Context,
	params query.Params,
) (*ListResult[*domain.User], error) {
	spec, err := s.builder.Build(query.UserSchema, params)
	if err != nil {
		return nil, err
	}
	users, total, err := s.users.List(ctx, spec)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", redact.ErrorAttr(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &ListResult[*domain.User]{Items: users, Total: total, Page: spec.Page}, nil
}

// UpdateUser modifies the principal's own account. A new password is
// re-hashed; the email cannot change.
func (s *UserServiceImpl) UpdateUser(
	ctx context.Context,
	p *domain.Principal,
	userID uuid.UUID,
	changes domain.UserChanges,
) (*domain.User, error) {
	if err := s.authorizer.AuthorizeOwnership(p, userID); err != nil {
		return nil, err
	}

	var updated *domain.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.users.WithTx(tx)
		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := user.ApplyChanges(changes); err != nil {
			return validationFailed("user", err)
		}
		if err := s.hashPassword(user); err != nil {
			return err
		}
		updated = user
		return txStore.Update(ctx, user)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, domain.ErrValidation) {
			s.logger.ErrorContext(ctx, "failed to update user",
				slog.String("user_id", userID.String()),
				redact.ErrorAttr(err))
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated",
		slog.String("user_id", userID.String()),
		slog.Bool("password_changed", changes.Password != nil))
	return updated, nil
}

// DeleteUser removes the principal's own account. The user's posts and their
// edges go in the same transaction as the user row.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, p *domain.Principal, userID uuid.UUID) error {
	if err := s.authorizer.AuthorizeOwnership(p, userID); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.sync.DeleteAuthorPosts(ctx, tx, userID); err != nil {
			return err
		}
		return s.users.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to delete user",
				slog.String("user_id", userID.String()),
				redact.ErrorAttr(err))
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", userID.String()))
	return nil
}

// hashPassword replaces a staged plaintext password with its hash. It is a
// no-op when no password is staged.
func (s *UserServiceImpl) hashPassword(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	hashed, err := s.passwords.Hash(user.Password)
	if err != nil {
		return NewServiceError("user", "hash_password", err)
	}
	user.HashedPassword = hashed
	user.Password = ""
	return nil
}
