package auth

import (
	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/pkg/enums"
)

// Session is the request-scoped identity handed to quote and booking code.
// The zero value is an anonymous visitor.
type Session struct {
	UserID        uuid.UUID
	Email         string
	Role          enums.Role
	Authenticated bool
}

// Anonymous returns the session used when no bearer token was presented.
func Anonymous() Session {
	return Session{}
}

// SessionFromClaims builds an authenticated session from verified claims.
func SessionFromClaims(claims *AccessTokenClaims) Session {
	if claims == nil {
		return Anonymous()
	}
	return Session{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Role:          claims.Role,
		Authenticated: true,
	}
}

// IsStaff reports whether the session belongs to an employee or admin.
func (s Session) IsStaff() bool {
	return s.Authenticated && s.Role.IsStaff()
}

// UserIDPtr returns the user id for persistence, or nil for anonymous visitors.
func (s Session) UserIDPtr() *uuid.UUID {
	if !s.Authenticated || s.UserID == uuid.Nil {
		return nil
	}
	id := s.UserID
	return &id
}
