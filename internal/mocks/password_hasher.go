package mocks

import (
	"errors"
	"strings"

	"github.com/corvid-labs/postboard/internal/service/auth"
)

// hashPrefix marks values produced by MockPasswordHasher.Hash.
const hashPrefix = "hashed:"

// ErrPasswordMismatch is returned by MockPasswordHasher.Compare on mismatch.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordHasher implements auth.PasswordHasher and auth.PasswordVerifier
// for testing. By default Hash prefixes the password with "hashed:" and
// Compare checks for that exact value.
type MockPasswordHasher struct {
	// HashFn allows for custom hashing logic in tests
	HashFn func(password string) (string, error)

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var (
	_ auth.PasswordHasher   = (*MockPasswordHasher)(nil)
	_ auth.PasswordVerifier = (*MockPasswordHasher)(nil)
)

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return hashPrefix + password, nil
}

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if !strings.HasPrefix(hashedPassword, hashPrefix) || hashedPassword[len(hashPrefix):] != password {
		return ErrPasswordMismatch
	}
	return nil
}
