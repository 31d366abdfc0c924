package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionData is what the session middleware resolves for a request.
type SessionData struct {
	SessionID string
	UserID    int
	Employer  bool
	Token     string // upstream bearer token
	ExpiresAt time.Time
}

type contextKey string

const contextSessionKey contextKey = "session"

// WithSession stores the resolved session in ctx.
func WithSession(ctx context.Context, s SessionData) context.Context {
	return context.WithValue(ctx, contextSessionKey, s)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (SessionData, bool) {
	s, ok := ctx.Value(contextSessionKey).(SessionData)
	return s, ok
}

// GetUserIDFromContext returns the upstream user id of the current session.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	s, ok := SessionFromContext(ctx)
	return s.UserID, ok
}

func GenerateUUID() string {
	return uuid.NewString()
}
