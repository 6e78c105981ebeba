package session

import "context"

type sessionContextKey struct{}

// WithSession stores a session in the context.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext retrieves the session placed in the context by the
// middleware, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	return sess, ok
}

// UserRefFromContext returns the principal reference of the context's
// session. The second return is false for no session or an anonymous
// one.
func UserRefFromContext(ctx context.Context) (UserRef, bool) {
	sess, ok := FromContext(ctx)
	if !ok || sess.Record().User.IsZero() {
		return UserRef{}, false
	}
	return sess.Record().User, true
}
