package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups the handlers mounted under /api.
type Handlers struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Posts      *PostHandler
	Categories *CategoryHandler
}

// Mount registers the /api route table on r. authenticate guards every route
// that needs a bearer token.
func Mount(r chi.Router, h Handlers, authenticate func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Get("/users", h.Users.List)
		r.Get("/users/{id}", h.Users.Get)

		r.Get("/posts", h.Posts.List)
		r.Get("/posts/category/{id}", h.Posts.ListByCategory)
		r.Get("/posts/{id}", h.Posts.Get)

		r.Get("/categories", h.Categories.List)
		r.Get("/categories/{id}", h.Categories.Get)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/auth/profile", h.Auth.Profile)

			r.Put("/users/{id}", h.Users.Update)
			r.Delete("/users/{id}", h.Users.Delete)

			r.Get("/posts/my", h.Posts.ListMine)
			r.Post("/posts", h.Posts.Create)
			r.Put("/posts/{id}", h.Posts.Update)
			r.Delete("/posts/{id}", h.Posts.Delete)

			r.Post("/categories", h.Categories.Create)
			r.Put("/categories/{id}", h.Categories.Rename)
			r.Delete("/categories/{id}", h.Categories.Delete)
		})
	})
}
