package provider

import "context"

type sessionKey struct{}

// WithSession returns a context carrying the browser session id. Memo only
// memoizes fetches whose context carries one.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the session id stored in ctx.
func SessionFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}
