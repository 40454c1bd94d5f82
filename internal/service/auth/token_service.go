package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenService issues and verifies signed, self-contained identity tokens.
// Tokens are never stored; a token is valid purely by signature and expiry.
type TokenService interface {
	// Issue signs a token for claims that expires ttl after the current time.
	// A zero ttl yields a token that is already expired.
	// Returns ErrInvalidTTL for a negative ttl.
	Issue(ctx context.Context, claims IdentityClaims, ttl time.Duration) (string, error)

	// Verify checks the token structure, then the signature, then expiry,
	// and returns the decoded claims.
	// Returns ErrMalformedToken, ErrInvalidSignature or ErrExpiredToken.
	Verify(ctx context.Context, token string) (*Claims, error)
}

// IdentityClaims is the identity a token is issued for.
type IdentityClaims struct {
	SubjectID uuid.UUID
	Email     string
}

// Claims are the verified contents of a token. IssuedAt and ExpiresAt have
// whole-second precision.
type Claims struct {
	IdentityClaims
	IssuedAt  time.Time
	ExpiresAt time.Time
}
