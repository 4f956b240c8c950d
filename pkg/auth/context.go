package auth

import (
	"context"
	"errors"
)

// GuestUsername is the identity carried by unauthenticated guest
// sessions. Guests never own persisted roadmaps.
const GuestUsername = "guest"

// Session describes one browser session: who the user is and whether
// they came through the guest path.
type Session struct {
	Username string
	Name     string
	Guest    bool
}

// NewGuestSession returns the session used by the "continue as guest"
// path.
func NewGuestSession() Session {
	return Session{Username: GuestUsername, Name: "Guest", Guest: true}
}

type contextKey string

const sessionContextKey contextKey = "session"

// ErrNoSession indicates that no session was found in the context
var ErrNoSession = errors.New("no session in context")

// SetSessionInContext adds a session to the request context
func SetSessionInContext(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// GetSessionFromContext extracts the session from the request context
func GetSessionFromContext(ctx context.Context) (Session, error) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	if !ok {
		return Session{}, ErrNoSession
	}
	return session, nil
}
