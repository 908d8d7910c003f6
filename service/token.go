package service

import "context"

type tokenKey struct{}

// WithToken attaches the caller's bearer token so backend calls made on its
// behalf carry the same identity.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
