package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"result-rpc/result"
)

// LoggingMiddleware logs every call with its payload type, duration, and
// outcome.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) result.Result[any] {
			start := time.Now()
			res := next(ctx, call)
			fields := []zap.Field{
				zap.String("type", call.TypeName),
				zap.Duration("duration", time.Since(start)),
			}
			if f, failed := res.Fault(); failed {
				fields = append(fields, zap.String("fault", f.FaultCode()))
				logger.Warn("call failed", fields...)
				return res
			}
			logger.Info("call handled", fields...)
			return res
		}
	}
}
