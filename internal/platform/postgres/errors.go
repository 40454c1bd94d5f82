package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/corvid-labs/postboard/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is the PostgreSQL error code for foreign key violations
	foreignKeyViolationCode = "23503"

	// checkViolationCode is the PostgreSQL error code for check constraint violations
	checkViolationCode = "23514"

	// notNullViolationCode is the PostgreSQL error code for not null violations
	notNullViolationCode = "23502"
)

// Unique constraint names declared by the migrations.
const (
	usersEmailKey      = "users_email_key"
	postsSlugKey       = "posts_slug_key"
	categoriesNameKey  = "categories_name_key"
	postCategoriesPKey = "post_categories_pkey"
)

// uniqueConstraintErrors maps unique constraints to their entity-specific errors.
var uniqueConstraintErrors = map[string]error{
	usersEmailKey:     store.ErrEmailExists,
	postsSlugKey:      store.ErrSlugExists,
	categoriesNameKey: store.ErrCategoryExists,
}

// MapError maps a database error to an appropriate store error.
// It wraps the original error to preserve context and provide better debugging information.
// Errors without a specific mapping become store.ErrStorage.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case IsUniqueViolation(err):
			if specific, ok := uniqueConstraintErrors[pgErr.ConstraintName]; ok {
				return fmt.Errorf("%w: %v", specific, err)
			}
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case IsForeignKeyViolation(err):
			return fmt.Errorf(
				"%w: foreign key violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case IsCheckConstraintViolation(err):
			return fmt.Errorf(
				"%w: check constraint violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case IsNotNullViolation(err):
			return fmt.Errorf(
				"%w: not null violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ColumnName,
				err,
			)
		}
	}

	return fmt.Errorf("%w: %v", store.ErrStorage, err)
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsForeignKeyViolation checks if the given error is a PostgreSQL foreign key constraint violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// IsCheckConstraintViolation checks if the given error is a PostgreSQL check constraint violation.
func IsCheckConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == checkViolationCode
}

// IsNotNullViolation checks if the given error is a PostgreSQL not null constraint violation.
func IsNotNullViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == notNullViolationCode
}

// CheckRowsAffected examines the number of rows affected by a database operation.
// If no rows were affected, it returns notFound.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("%w: nil result provided to CheckRowsAffected", store.ErrStorage)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %v", store.ErrStorage, err)
	}

	if rowsAffected == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}

	return nil
}
