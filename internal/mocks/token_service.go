package mocks

import (
	"context"
	"time"

	"github.com/corvid-labs/postboard/internal/service/auth"
)

// MockTokenService implements auth.TokenService for testing
type MockTokenService struct {
	// IssueFn allows test cases to mock the Issue behavior
	IssueFn func(ctx context.Context, claims auth.IdentityClaims, ttl time.Duration) (string, error)

	// VerifyFn allows test cases to mock the Verify behavior
	VerifyFn func(ctx context.Context, token string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token     string
	Err       error
	VerifyErr error
	Claims    *auth.Claims

	// IssuedFor records the claims of the last Issue call
	IssuedFor auth.IdentityClaims
	IssuedTTL time.Duration
}

var _ auth.TokenService = (*MockTokenService)(nil)

// Issue implements the auth.TokenService interface
func (m *MockTokenService) Issue(
	ctx context.Context,
	claims auth.IdentityClaims,
	ttl time.Duration,
) (string, error) {
	m.IssuedFor = claims
	m.IssuedTTL = ttl

	if m.IssueFn != nil {
		return m.IssueFn(ctx, claims, ttl)
	}
	return m.Token, m.Err
}

// Verify implements the auth.TokenService interface
func (m *MockTokenService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, token)
	}
	return m.Claims, m.VerifyErr
}
