package middleware

import (
	"context"

	"github.com/dryd-travel/booking-backend/pkg/auth"
)

type contextKey string

const ctxSession contextKey = "session"

// SessionFromContext returns the caller's session; requests without a token get
// the anonymous session.
func SessionFromContext(ctx context.Context) auth.Session {
	if ctx == nil {
		return auth.Anonymous()
	}
	if s, ok := ctx.Value(ctxSession).(auth.Session); ok {
		return s
	}
	return auth.Anonymous()
}

// WithSession injects a session into the context.
func WithSession(ctx context.Context, session auth.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, session)
}

// UserIDFromContext returns the authenticated user id or "".
func UserIDFromContext(ctx context.Context) string {
	s := SessionFromContext(ctx)
	if !s.Authenticated {
		return ""
	}
	return s.UserID.String()
}
