package middleware

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"result-rpc/result"
)

// RetryMiddleware re-runs a failed handler up to maxRetries times with
// exponential backoff. Only transport-level faults (code prefix
// "transport.") are retried; domain faults are returned immediately,
// since re-running a validation failure cannot change its outcome.
func RetryMiddleware(maxRetries int, baseDelay time.Duration, logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) result.Result[any] {
			res := next(ctx, call)
			for i := 0; i < maxRetries; i++ {
				f, failed := res.Fault()
				if !failed {
					return res
				}
				if !strings.HasPrefix(f.FaultCode(), "transport.") {
					return res
				}
				logger.Info("retrying call",
					zap.String("type", call.TypeName),
					zap.Int("attempt", i+1),
					zap.String("fault", f.FaultCode()))
				select {
				case <-ctx.Done():
					return res
				case <-time.After(baseDelay * time.Duration(1<<i)):
				}
				res = next(ctx, call)
			}
			return res
		}
	}
}
