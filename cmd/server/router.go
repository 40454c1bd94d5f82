package main

import (
	"context"
	"net/http"
	"time"

	"github.com/corvid-labs/postboard/internal/api"
	apiMiddleware "github.com/corvid-labs/postboard/internal/api/middleware"
	"github.com/corvid-labs/postboard/internal/redact"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const healthPingTimeout = 2 * time.Second

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(app.config.Server.RequestTimeout()))
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.gate)

	api.Mount(r, api.Handlers{
		Auth:       api.NewAuthHandler(app.userService, app.logger),
		Users:      api.NewUserHandler(app.userService, app.logger),
		Posts:      api.NewPostHandler(app.postService, app.logger),
		Categories: api.NewCategoryHandler(app.categoryService, app.logger),
	}, authMiddleware.Authenticate)

	r.Get("/health", app.health)

	return r
}

// health reports liveness. With a database attached it also checks that the
// database answers.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	if app.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := app.db.PingContext(ctx); err != nil {
			app.logger.Error("health check failed", redact.ErrorAttr(err))
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		app.logger.Error("failed to write health check response", redact.ErrorAttr(err))
	}
}
