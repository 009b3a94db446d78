package session

import "context"

type ctxKeyStore struct{}

// WithStore binds the store to ctx.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKeyStore{}, s)
}

// FromContext returns the bound store. Reaching session state outside a
// bound context is a programming error, so it panics.
func FromContext(ctx context.Context) *Store {
	s, ok := ctx.Value(ctxKeyStore{}).(*Store)
	if !ok || s == nil {
		panic("session: FromContext called outside a session scope")
	}
	return s
}
