package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrEmptyUserName       = errors.New("name cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrInvalidAddress      = errors.New("address must be a JSON object")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User represents a registered account. A user owns zero or more posts.
type User struct {
	ID             uuid.UUID       `json:"id"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Password       string          `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string          `json:"-"` // Never expose password hash in JSON
	Address        json.RawMessage `json:"address,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// UserChanges holds the mutable account fields. Nil fields are left untouched.
// Email is deliberately absent: it is immutable after registration.
type UserChanges struct {
	Name     *string
	Password *string
	Address  json.RawMessage
}

// NewUser creates a new User with the given email, display name, password and
// optional address. The email is normalised to lower case.
//
// NOTE: This function only sets up the user structure with the plaintext password.
// The caller is responsible for hashing the password before storing the user.
func NewUser(email, name, password string, address json.RawMessage) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      strings.TrimSpace(name),
		Password:  password,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	if u.Name == "" {
		return ErrEmptyUserName
	}

	if !validateAddress(u.Address) {
		return ErrInvalidAddress
	}

	if u.Password != "" {
		return validatePasswordLength(u.Password)
	}

	// Stored users carry only the hash.
	if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// ApplyChanges copies the set fields of c onto the user and bumps UpdatedAt.
// A new plaintext password is staged in Password for the caller to hash.
func (u *User) ApplyChanges(c UserChanges) error {
	if c.Name != nil {
		u.Name = strings.TrimSpace(*c.Name)
	}
	if c.Address != nil {
		u.Address = c.Address
	}
	if c.Password != nil {
		u.Password = *c.Password
	}
	u.UpdatedAt = time.Now().UTC()
	return u.Validate()
}

// validateEmailFormat performs basic validation of email format: a non-empty
// local part, an @, and a dotted domain with no leading or trailing dot.
func validateEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domainPart := email[at+1:]
	if len(domainPart) < 3 || strings.ContainsRune(domainPart, '@') {
		return false
	}

	dot := strings.IndexByte(domainPart, '.')
	return dot > 0 && !strings.HasSuffix(domainPart, ".")
}

// validatePasswordLength enforces 8 to 72 bytes; 72 is bcrypt's input limit.
func validatePasswordLength(password string) error {
	switch {
	case len(password) < 8:
		return ErrPasswordTooShort
	case len(password) > 72:
		return ErrPasswordTooLong
	default:
		return nil
	}
}

func validateAddress(address json.RawMessage) bool {
	trimmed := bytes.TrimSpace(address)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	if trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}
