package auth

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned when an admin operation runs without a valid
// session.
var ErrUnauthorized = errors.New("unauthorized")

// Session identifies the authenticated admin for the duration of a request.
type Session struct {
	KeyID  string
	Name   string
	Scopes []string
}

// HasScope reports whether the session was granted scope.
func (s Session) HasScope(scope string) bool {
	return slices.Contains(s.Scopes, scope)
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session attached to ctx, if any.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// Require fails with ErrUnauthorized unless ctx carries an admin session.
func Require(ctx context.Context) error {
	s, ok := SessionFrom(ctx)
	if !ok || !s.HasScope(ScopeAdmin) {
		return ErrUnauthorized
	}
	return nil
}
