package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewTokenService(t *testing.T) {
	t.Parallel()

	_, err := NewTokenServiceWithClock("too-short", nil)
	assert.ErrorIs(t, err, ErrWeakSecret)

	svc, err := NewTokenService(DefaultTestAuthConfig())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := RequireTestTokenService(t, clockAt(fixedTime.Add(300*time.Millisecond)))
	identity := IdentityClaims{SubjectID: uuid.New(), Email: "writer@example.com"}

	token, err := svc.Issue(context.Background(), identity, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(token, "."))

	claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, identity, claims.IdentityClaims)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssue_RejectsBadInput(t *testing.T) {
	t.Parallel()

	svc := RequireTestTokenService(t, clockAt(fixedTime))

	_, err := svc.Issue(context.Background(), IdentityClaims{SubjectID: uuid.New()}, -time.Second)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	_, err = svc.Issue(context.Background(), IdentityClaims{}, time.Minute)
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	identity := IdentityClaims{SubjectID: uuid.New(), Email: "a@example.com"}
	issuer := RequireTestTokenService(t, clockAt(fixedTime))
	token, err := issuer.Issue(context.Background(), identity, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"well before expiry", fixedTime.Add(30 * time.Second), nil},
		{"just before expiry", fixedTime.Add(time.Minute - time.Millisecond), nil},
		{"at expiry", fixedTime.Add(time.Minute), ErrExpiredToken},
		{"after expiry", fixedTime.Add(2 * time.Minute), ErrExpiredToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			verifier := RequireTestTokenService(t, clockAt(tc.now))
			claims, err := verifier.Verify(context.Background(), token)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, identity.SubjectID, claims.SubjectID)
		})
	}
}

func TestVerify_ZeroTTLIsAlreadyExpired(t *testing.T) {
	t.Parallel()

	svc := RequireTestTokenService(t, clockAt(fixedTime))
	token, err := svc.Issue(context.Background(), IdentityClaims{SubjectID: uuid.New()}, 0)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_SingleBitMutation(t *testing.T) {
	t.Parallel()

	svc := RequireTestTokenService(t, clockAt(fixedTime))
	token, err := svc.Issue(context.Background(),
		IdentityClaims{SubjectID: uuid.New(), Email: "bits@example.com"}, time.Hour)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		for bit := 0; bit < 8; bit++ {
			mutated := []byte(token)
			mutated[i] ^= 1 << bit
			_, err := svc.Verify(context.Background(), string(mutated))
			if !assert.ErrorIs(t, err, ErrInvalidSignature, "byte %d bit %d", i, bit) {
				return
			}
		}
	}
}

func TestVerify_Rejections(t *testing.T) {
	t.Parallel()

	svc := RequireTestTokenService(t, clockAt(fixedTime))
	other, err := NewTokenServiceWithClock("another-secret-that-is-32-chars-long!", clockAt(fixedTime))
	require.NoError(t, err)

	foreign, err := other.Issue(context.Background(), IdentityClaims{SubjectID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	valid, err := svc.Issue(context.Background(), IdentityClaims{SubjectID: uuid.New()}, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrMalformedToken},
		{"no separator", "not-a-token", ErrMalformedToken},
		{"signed with another key", foreign, ErrInvalidSignature},
		{"signature removed", parts[0] + "." + parts[1] + ".", ErrInvalidSignature},
		{"padded signature", valid + "=", ErrInvalidSignature},
		{"payload swapped", parts[0] + "." + strings.Split(foreign, ".")[1] + "." + parts[2], ErrInvalidSignature},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestVerify_SignedGarbageClaimsAreMalformed(t *testing.T) {
	t.Parallel()

	svc := RequireTestTokenService(t, clockAt(fixedTime)).(*hmacTokenService)

	sign := func(header, payload string) string {
		input := signatureEncoding.EncodeToString([]byte(header)) + "." +
			signatureEncoding.EncodeToString([]byte(payload))
		mac := hmacSum(svc.signingKey, input)
		return input + "." + signatureEncoding.EncodeToString(mac)
	}

	exp := fixedTime.Add(time.Hour).Unix()
	iat := fixedTime.Unix()
	header := `{"alg":"HS256","typ":"JWT"}`

	tests := []struct {
		name  string
		token string
	}{
		{"payload not json", sign(header, "garbage")},
		{"subject not a uuid", sign(header, `{"sub":"nobody","iat":`+itoa(iat)+`,"exp":`+itoa(exp)+`}`)},
		{"missing expiry", sign(header, `{"sub":"`+uuid.NewString()+`","iat":`+itoa(iat)+`}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}
