package http

import "context"

// WithSyncDispatch runs dispatched handlers inline and hands their error to fn
func WithSyncDispatch(fn func(error)) Options {
	return func(s *Server) {
		s.dispatch = func(ctx context.Context, handler func(ctx context.Context) error) {
			fn(handler(ctx))
		}
	}
}

var ParseQuestion = parseQuestion
