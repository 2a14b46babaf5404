package auth

import "context"

type ctxKey string

const (
	ctxKeySession ctxKey = "session"
	ctxKeyUser    ctxKey = "user"
)

func WithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKeySession, sid)
}

func SessionFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySession); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKeyUser, username)
}

// UserFromContext is the backend username for signed-in sessions, "" for
// anonymous ones.
func UserFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyUser); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
