package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

var userColumns = []string{"id", "email", "name", "hashed_password", "address", "created_at", "updated_at"}

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// DB returns the underlying database connection or transaction.
func (s *PostgresUserStore) DB() store.DBTX {
	return s.db
}

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	if tx == nil {
		return s
	}
	return &PostgresUserStore{db: tx, logger: s.logger}
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, hashed_password, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`,
		user.ID,
		user.Email,
		user.Name,
		user.HashedPassword,
		nullableJSON(user.Address),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrEmailExists) {
			log.Debug("email already registered", slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "create", "failed to insert user", mapped)
	}

	log.Info("user created successfully", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, "id", id)
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *PostgresUserStore) getOne(ctx context.Context, column string, value any) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, hashed_password, address, created_at, updated_at
		FROM users WHERE `+quoteIdent(column)+` = $1`, value)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("lookup", column))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user",
			slog.String("error", err.Error()),
			slog.String("lookup", column))
		return nil, store.NewStoreError("user", "get", "failed to query user", MapError(err))
	}
	return user, nil
}

// List implements store.UserStore.List
func (s *PostgresUserStore) List(ctx context.Context, spec query.Spec) ([]*domain.User, int, error) {
	var (
		items []*domain.User
		total int
	)
	err := readSnapshot(ctx, s.db, "user", func(db store.DBTX) error {
		var err error
		items, total, err = s.list(ctx, db, spec)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// list runs List against db.
func (s *PostgresUserStore) list(ctx context.Context, db store.DBTX, spec query.Spec) ([]*domain.User, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rendered, err := renderList(listQuery{table: "users", columns: userColumns}, spec)
	if err != nil {
		return nil, 0, store.NewStoreError("user", "list", "invalid query plan", errors.Join(store.ErrStorage, err))
	}

	var total int
	if err := db.QueryRowContext(ctx, rendered.countSQL, rendered.countArgs...).Scan(&total); err != nil {
		log.Error("failed to count users", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("user", "list", "failed to count users", MapError(err))
	}

	rows, err := db.QueryContext(ctx, rendered.selectSQL, rendered.selectArgs...)
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("user", "list", "failed to query users", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, store.NewStoreError("user", "list", "failed to scan user", MapError(err))
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.NewStoreError("user", "list", "failed to iterate users", MapError(err))
	}

	log.Debug("users listed", slog.Int("count", len(users)), slog.Int("total", total))
	return users, total, nil
}

// Update implements store.UserStore.Update
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, hashed_password = $2, address = $3::jsonb, updated_at = $4
		WHERE id = $5
	`,
		user.Name,
		user.HashedPassword,
		nullableJSON(user.Address),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "update", "failed to update user", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("user updated successfully", slog.String("user_id", user.ID.String()))
	return nil
}

// Delete implements store.UserStore.Delete
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return store.NewStoreError("user", "delete", "failed to delete user", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("user deleted successfully", slog.String("user_id", id.String()))
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var address []byte
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&address,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(address) > 0 {
		user.Address = append([]byte(nil), address...)
	}
	return &user, nil
}

// nullableJSON converts an optional raw JSON document to a bind value.
func nullableJSON(raw []byte) any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return trimmed
}
