// Package middleware wraps server-side dispatch handlers in an onion
// chain. Each middleware sees the decoded call and the handler's result;
// failures it injects are ordinary result failures carrying the faults
// declared in this package, so they serialize like any other fault.
package middleware

import (
	"context"

	"result-rpc/result"
)

// Call is one decoded inbound request: the registered wire name of the
// payload type plus the decoded payload itself.
type Call struct {
	TypeName string
	Payload  any
}

// HandlerFunc processes one call and produces the outcome that will be
// encoded onto the wire.
type HandlerFunc func(ctx context.Context, call *Call) result.Result[any]

// Middleware wraps a handler with additional behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into one. Chain(A, B, C)(h) runs
// A.before → B.before → C.before → h → C.after → B.after → A.after.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
