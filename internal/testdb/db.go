//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/corvid-labs/postboard/internal/platform/postgres"
	"github.com/corvid-labs/postboard/internal/redact"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// Environment variables checked for a test database URL, in order.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvTestDBURL   = "POSTBOARD_TEST_DB_URL"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the first non-empty database URL from the
// environment, or "" when none is set.
func GetTestDatabaseURL() string {
	for _, key := range []string{EnvDatabaseURL, EnvTestDBURL} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDBWithT opens a connection to the test database, applies the embedded
// migrations once per process, and closes the connection at test cleanup.
// The test is skipped when no database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skipf("%s or %s not set - skipping integration test", EnvDatabaseURL, EnvTestDBURL)
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection to %s", redact.DatabaseURL(dbURL))

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "Database ping failed for %s", redact.DatabaseURL(dbURL))

	t.Cleanup(func() {
		CleanupDB(t, db)
	})

	require.NoError(t, SetupTestDatabaseSchema(db), "Failed to run migrations")
	return db
}

// SetupTestDatabaseSchema applies all pending migrations. It runs at most once
// per test binary; later calls return the first result.
func SetupTestDatabaseSchema(db *sql.DB) error {
	migrateOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*TestTimeout)
		defer cancel()
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		if err := postgres.Migrate(ctx, db, "up", logger); err != nil {
			migrateErr = fmt.Errorf("apply migrations: %w", err)
		}
	})
	return migrateErr
}

// WithTx executes a test function within a transaction, automatically rolling back
// after the test completes. This ensures test isolation and prevents side effects.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		err := tx.Rollback()
		// sql.ErrTxDone is expected if tx is already committed or rolled back
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// CleanupDB properly closes a database connection, logging any errors.
func CleanupDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}

	if err := db.Close(); err != nil {
		t.Logf("Warning: failed to close database connection: %v", err)
	}
}
