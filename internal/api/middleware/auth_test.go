package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corvid-labs/postboard/internal/api/middleware"
	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/mocks"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/service/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	tokens := &mocks.MockTokenService{
		VerifyFn: func(_ context.Context, token string) (*auth.Claims, error) {
			switch token {
			case "good":
				return &auth.Claims{
					IdentityClaims: auth.IdentityClaims{SubjectID: userID, Email: "u@example.com"},
					ExpiresAt:      time.Now().Add(time.Hour),
				}, nil
			case "expired":
				return nil, auth.ErrExpiredToken
			default:
				return nil, auth.ErrInvalidSignature
			}
		},
	}
	logBuf, log := logger.NewTestLogger(t)
	mw := middleware.NewAuthMiddleware(auth.NewGate(tokens, log))

	var seen *domain.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r)
		require.True(t, ok)
		seen = p
		w.WriteHeader(http.StatusNoContent)
	})
	handler := mw.Authenticate(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusNoContent},
		{name: "lower case scheme", header: "bearer good", wantStatus: http.StatusNoContent},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer expired", wantStatus: http.StatusUnauthorized},
		{name: "forged token", header: "Bearer forged", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus != http.StatusNoContent {
				assert.Nil(t, seen)
				var body shared.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "Unauthorized", body.Error)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, userID, seen.ID)
		})
	}

	// Expired and forged tokens are indistinguishable to the client but not in the logs.
	logger.AssertLogContains(t, logBuf, auth.ErrExpiredToken.Error())
	logger.AssertLogContains(t, logBuf, auth.ErrInvalidSignature.Error())
}

func TestNewAuthMiddleware_NilAuthenticator(t *testing.T) {
	assert.Panics(t, func() { middleware.NewAuthMiddleware(nil) })
}
