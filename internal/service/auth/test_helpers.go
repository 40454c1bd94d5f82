package auth

import (
	"testing"
	"time"

	"github.com/corvid-labs/postboard/internal/config"
	"github.com/stretchr/testify/require"
)

// TestSecret is a signing secret long enough for NewTokenService.
const TestSecret = "test-jwt-secret-that-is-32-chars-long"

// DefaultTestAuthConfig returns an auth configuration suitable for tests.
// BCryptCost is the bcrypt minimum so hashing stays fast.
func DefaultTestAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            TestSecret,
		TokenLifetimeMinutes: 60,
		BCryptCost:           4,
	}
}

// RequireTestTokenService creates a token service over TestSecret that reads
// the time from now, failing the test on error. A nil now uses time.Now.
func RequireTestTokenService(t *testing.T, now func() time.Time) TokenService {
	t.Helper()
	svc, err := NewTokenServiceWithClock(TestSecret, now)
	require.NoError(t, err, "Failed to create test token service")
	return svc
}
