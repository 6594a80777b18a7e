package auth

import (
	"context"

	"warbler/domain"
)

const (
	userKey privateKey = "user"
)

type privateKey string

// SetUser returns a copy of ctx carrying the logged in user.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the logged in user stored in ctx, or nil for anonymous requests.
func GetUser(ctx context.Context) *domain.User {
	if temp := ctx.Value(userKey); temp != nil {
		if user, ok := temp.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// IdentityFrom returns the session identity of the request that ctx belongs to.
func IdentityFrom(ctx context.Context) Identity {
	if user := GetUser(ctx); user != nil {
		return Authenticated(user.ID)
	}
	return Anonymous()
}
