package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/google/uuid"
)

// bearerScheme is matched case-insensitively.
const bearerScheme = "Bearer"

// Gate turns request credentials into a Principal and decides whether a
// principal may mutate a resource.
type Gate struct {
	tokens TokenService
	logger *slog.Logger
}

// NewGate creates a Gate that verifies tokens with tokens.
// If logger is nil, a default logger will be used.
func NewGate(tokens TokenService, logger *slog.Logger) *Gate {
	if tokens == nil {
		panic("tokens cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_gate")),
	}
}

// Authenticate parses an Authorization header value of the form
// "Bearer <token>" and verifies the token. Every failure is reported as
// domain.ErrUnauthenticated; the specific reason is logged at debug level.
func (g *Gate) Authenticate(ctx context.Context, rawHeader string) (*domain.Principal, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	token, err := bearerToken(rawHeader)
	if err != nil {
		log.Debug("authentication failed", slog.String("reason", err.Error()))
		return nil, domain.ErrUnauthenticated
	}

	claims, err := g.tokens.Verify(ctx, token)
	if err != nil {
		log.Debug("authentication failed", slog.String("reason", err.Error()))
		return nil, domain.ErrUnauthenticated
	}

	return &domain.Principal{
		ID:    claims.SubjectID,
		Email: claims.Email,
	}, nil
}

// AuthorizeOwnership allows p to act on a resource owned by ownerID.
// It fails closed: an unknown owner or an empty principal ID is Forbidden.
func (g *Gate) AuthorizeOwnership(p *domain.Principal, ownerID uuid.UUID) error {
	if p == nil {
		return domain.ErrUnauthenticated
	}
	if ownerID == uuid.Nil || p.ID == uuid.Nil || p.ID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}

func bearerToken(rawHeader string) (string, error) {
	if rawHeader == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(rawHeader, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", ErrMalformedToken
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedToken
	}
	return token, nil
}
