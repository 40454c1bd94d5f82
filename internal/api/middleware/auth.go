package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/platform/logger"
)

// Authenticator turns an Authorization header value into a principal.
// auth.Gate satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, rawHeader string) (*domain.Principal, error)
}

// AuthMiddleware requires a valid bearer token on the routes it wraps.
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	if authenticator == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("authenticator cannot be nil for AuthMiddleware")
	}
	return &AuthMiddleware{authenticator: authenticator}
}

// Authenticate verifies the Authorization header and stores the principal in
// the request context. Every failure gets the same 401 response; the reason
// is only logged.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := shared.WithPrincipal(r.Context(), principal)
		log := logger.FromContext(ctx).With(slog.String("principal_id", principal.ID.String()))
		ctx = logger.WithLogger(ctx, log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipal extracts the principal from the request context.
func GetPrincipal(r *http.Request) (*domain.Principal, bool) {
	return shared.PrincipalFromContext(r.Context())
}
