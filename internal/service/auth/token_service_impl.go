package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corvid-labs/postboard/internal/config"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the minimum length of the HMAC signing secret.
const MinSecretLength = 32

// signatureEncoding rejects padding and non-zero trailing bits, so every
// signature has exactly one accepted spelling.
var signatureEncoding = base64.RawURLEncoding.Strict()

// hmacTokenService is an implementation of TokenService using HMAC-SHA256 signing.
type hmacTokenService struct {
	signingKey []byte
	timeFunc   func() time.Time // Injectable for testing
}

// tokenClaims defines the structure of JWT claims we use
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Ensure hmacTokenService implements TokenService interface
var _ TokenService = (*hmacTokenService)(nil)

// NewTokenService creates a new token service using HMAC-SHA256 signing.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	return NewTokenServiceWithClock(cfg.JWTSecret, time.Now)
}

// NewTokenServiceWithClock creates a token service that reads the current
// time from now. The secret is copied.
func NewTokenServiceWithClock(secret string, now func() time.Time) (TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if now == nil {
		now = time.Now
	}
	return &hmacTokenService{
		signingKey: []byte(secret),
		timeFunc:   now,
	}, nil
}

// Issue implements TokenService.Issue.
func (s *hmacTokenService) Issue(
	ctx context.Context,
	identity IdentityClaims,
	ttl time.Duration,
) (string, error) {
	log := logger.FromContext(ctx)

	if ttl < 0 {
		return "", ErrInvalidTTL
	}
	if identity.SubjectID == uuid.Nil {
		return "", ErrEmptySubject
	}

	issuedAt := s.timeFunc().Truncate(time.Second)
	claims := tokenClaims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.SubjectID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign token",
			"error", err,
			"user_id", identity.SubjectID,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}
	return signed, nil
}

// Verify implements TokenService.Verify.
func (s *hmacTokenService) Verify(ctx context.Context, token string) (*Claims, error) {
	log := logger.FromContext(ctx)

	dot := strings.LastIndexByte(token, '.')
	if dot < 0 {
		log.Debug("token verification failed: no separator")
		return nil, ErrMalformedToken
	}

	if !s.signatureMatches(token[:dot], token[dot+1:]) {
		log.Debug("token verification failed: signature mismatch")
		return nil, ErrInvalidSignature
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.timeFunc),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token verification failed: expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			log.Debug("token verification failed: unacceptable algorithm", "error", err)
			return nil, ErrInvalidSignature
		default:
			log.Debug("token verification failed: invalid claims",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return nil, ErrMalformedToken
		}
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil || subject == uuid.Nil || claims.IssuedAt == nil {
		log.Debug("token verification failed: bad subject or issue time")
		return nil, ErrMalformedToken
	}

	return &Claims{
		IdentityClaims: IdentityClaims{
			SubjectID: subject,
			Email:     claims.Email,
		},
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// signatureMatches recomputes the HS256 MAC of signingInput and compares it
// in constant time with the decoded signature.
func (s *hmacTokenService) signatureMatches(signingInput, signature string) bool {
	got, err := signatureEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(signingInput))
	return hmac.Equal(got, mac.Sum(nil))
}
