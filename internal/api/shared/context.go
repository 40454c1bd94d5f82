package shared

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/google/uuid"
)

// ContextKey is the type of the request context keys set by this package.
type ContextKey string

const (
	// PrincipalContextKey holds the *domain.Principal of an authenticated request.
	PrincipalContextKey ContextKey = "principal"

	// TraceIDKey holds the trace ID of the request.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the length in hex characters of generated trace IDs.
	TraceIDLength = 32

	// maxTraceIDLength bounds client-supplied trace IDs.
	maxTraceIDLength = 64
)

// fallbackCounter separates fallback trace IDs generated in the same instant.
var fallbackCounter atomic.Uint32

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// PrincipalFromContext returns the principal set by the auth middleware.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(*domain.Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// SetTraceID adds a freshly generated trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// WithTraceID adds candidate as the trace ID when it is a usable client
// supplied value, and a generated one otherwise.
func WithTraceID(ctx context.Context, candidate string) context.Context {
	if !validTraceID(candidate) {
		return SetTraceID(ctx)
	}
	return context.WithValue(ctx, TraceIDKey, candidate)
}

// GetTraceID retrieves the trace ID from the context, or "" if there is none.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// validTraceID accepts short tokens of letters, digits, '-' and '_' so that
// client input cannot inject anything into logs.
func validTraceID(s string) bool {
	if s == "" || len(s) > maxTraceIDLength {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	}) < 0
}

// generateTraceID returns a random UUID as 32 hex characters. If the random
// source fails it falls back to a time-based value, never a static one.
func generateTraceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		slog.Error("failed to generate random trace ID",
			"error", err,
			"fallback", "time-based generation")
		return generateFallbackTraceID(time.Now())
	}
	return hex.EncodeToString(id[:])
}

func generateFallbackTraceID(now time.Time) string {
	b := make([]byte, TraceIDLength/2)
	binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(now.Nanosecond()))
	binary.BigEndian.PutUint32(b[12:], uint32(fallbackCounter.Add(1)))
	return hex.EncodeToString(b)
}
