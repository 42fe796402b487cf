package middleware

import (
	"context"
	"time"

	"result-rpc/result"
)

// TimeoutMiddleware bounds handler execution time. When the deadline
// passes first, the call fails with a TimeoutFailure; the handler
// goroutine sees its context canceled.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) result.Result[any] {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan result.Result[any], 1)
			go func() {
				done <- next(ctx, call)
			}()

			select {
			case res := <-done:
				return res
			case <-ctx.Done():
				return result.Failure[any](NewTimeoutFailure(timeout.Milliseconds()))
			}
		}
	}
}
