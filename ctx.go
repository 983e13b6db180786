package accounts

import (
	"context"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext sets the AuthenticatedUser in the given context
func WithContext(r context.Context, user *AuthenticatedUser) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the authenticated user from the context.
func FromContext(ctx context.Context) (*AuthenticatedUser, bool) {
	raw, ok := ctx.Value(userCtxKey).(*AuthenticatedUser)
	return raw, ok
}
