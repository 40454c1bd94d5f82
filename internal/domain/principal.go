package domain

import "github.com/google/uuid"

// Principal is the identity derived from a verified token. It exists only for
// the duration of one request and is never persisted.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
