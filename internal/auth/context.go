package auth

import "context"

type ctxKey string

const contextUserKey ctxKey = "auth_user"

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextUserKey, u)
}

// UserFromContext returns the principal stored by the Gate middleware.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextUserKey).(*User)
	return u, ok && u != nil
}
