package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"result-rpc/result"
)

// RateLimitMiddleware rejects calls beyond r per second (bursting to
// burst) with a RateLimitFailure. Token bucket, shared across all calls
// through this chain.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) result.Result[any] {
			if !limiter.Allow() {
				return result.Failure[any](NewRateLimitFailure())
			}
			return next(ctx, call)
		}
	}
}
