package auth

import (
	"context"

	"github.com/dukerupert/invibe/internal/model"
)

type contextKey struct{}

// SessionContext identifies the browser session behind a request and, when
// signed in, its user.
type SessionContext struct {
	SessionID string
	User      *model.User
}

func WithSession(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

func FromContext(ctx context.Context) (SessionContext, bool) {
	sc, ok := ctx.Value(contextKey{}).(SessionContext)
	return sc, ok
}

func SessionID(ctx context.Context) string {
	sc, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return sc.SessionID
}

// User returns the signed-in user, or nil.
func User(ctx context.Context) *model.User {
	sc, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return sc.User
}

func IsSignedIn(ctx context.Context) bool {
	return User(ctx) != nil
}
