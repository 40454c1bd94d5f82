package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/corvid-labs/postboard/internal/config"
	"github.com/corvid-labs/postboard/internal/platform/postgres"
	"github.com/corvid-labs/postboard/internal/service"
	"github.com/corvid-labs/postboard/internal/service/auth"
	"github.com/corvid-labs/postboard/internal/store"
)

// stores is the persistence layer the services are built on.
type stores struct {
	tx         store.TxRunner
	users      store.UserStore
	posts      store.PostStore
	categories store.CategoryStore
	relations  store.RelationStore
}

// postgresStores returns the PostgreSQL implementation of every store.
func postgresStores(db *sql.DB, logger *slog.Logger) stores {
	return stores{
		tx:         store.NewDBTxRunner(db),
		users:      postgres.NewPostgresUserStore(db, logger),
		posts:      postgres.NewPostgresPostStore(db, logger),
		categories: postgres.NewPostgresCategoryStore(db, logger),
		relations:  postgres.NewPostgresRelationStore(db, logger),
	}
}

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	gate *auth.Gate

	userService     service.UserService
	postService     service.PostService
	categoryService service.CategoryService
}

// newApplication creates an application backed by PostgreSQL.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	return buildApplication(cfg, logger, db, postgresStores(db, logger))
}

// buildApplication wires the services over s. db may be nil, in which case
// the health check does not ping a database.
func buildApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB, s stores) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("token service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.gate = auth.NewGate(tokens, logger)

	sync, err := service.NewRelationSync(s.tx, s.posts, s.categories, s.relations, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create relation sync: %w", err)
	}

	app.postService, err = service.NewPostService(s.posts, s.categories, sync, app.gate, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create post service: %w", err)
	}

	app.categoryService, err = service.NewCategoryService(s.tx, s.categories, sync, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create category service: %w", err)
	}

	app.userService, err = service.NewUserService(service.UserServiceDeps{
		Tx:         s.tx,
		Users:      s.users,
		Sync:       sync,
		Passwords:  auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		Tokens:     tokens,
		Authorizer: app.gate,
		TokenTTL:   cfg.Auth.TokenLifetime(),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is canceled, then shuts down and releases
// resources.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}
	app.logger.Info("application shutdown completed")
}
