package auth

import "errors"

// Token verification errors. Callers outside this package see them only in
// logs; the Gate collapses every one of them to domain.ErrUnauthenticated.
var (
	// ErrMalformedToken indicates the token is not structurally a token or its
	// claims cannot be decoded.
	ErrMalformedToken = errors.New("malformed authentication token")

	// ErrInvalidSignature indicates the signature does not match the signing key.
	ErrInvalidSignature = errors.New("invalid authentication token signature")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidTTL indicates a negative token lifetime was requested.
	ErrInvalidTTL = errors.New("token lifetime cannot be negative")

	// ErrEmptySubject indicates an attempt to issue a token without a subject.
	ErrEmptySubject = errors.New("token subject cannot be empty")

	// ErrWeakSecret indicates the signing secret is shorter than MinSecretLength.
	ErrWeakSecret = errors.New("jwt secret must be at least 32 characters")
)
