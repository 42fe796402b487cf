package middleware

import "result-rpc/fault"

// TimeoutFailure reports a handler that exceeded its deadline.
type TimeoutFailure struct {
	fault.Base
	TimeoutMillis int64 `json:"timeoutMillis"`
}

// NewTimeoutFailure builds the fault for a call that timed out after the
// given number of milliseconds.
func NewTimeoutFailure(millis int64) *TimeoutFailure {
	return &TimeoutFailure{
		Base:          fault.Base{Code: "transport.timeout", Message: "Request timed out."},
		TimeoutMillis: millis,
	}
}

// RateLimitFailure reports a call rejected by the token bucket.
type RateLimitFailure struct {
	fault.Base
}

// NewRateLimitFailure builds the fault for a rate-limited call.
func NewRateLimitFailure() *RateLimitFailure {
	return &RateLimitFailure{
		Base: fault.Base{Code: "transport.rate_limited", Message: "Rate limit exceeded."},
	}
}

// DispatchFailure reports a request that could not be routed to a
// handler: an unknown payload type or a payload that failed to decode.
type DispatchFailure struct {
	fault.Base
	TypeName string `json:"typeName,omitempty"`
}

// NewDispatchFailure builds the fault for an undispatchable request.
func NewDispatchFailure(typeName, message string) *DispatchFailure {
	return &DispatchFailure{
		Base:     fault.Base{Code: "dispatch.failed", Message: message},
		TypeName: typeName,
	}
}

// Resolver contributes this package's fault types to a catalog. Servers
// and clients compose it with the caller's resolvers so both ends of the
// wire decode these faults to their concrete types.
func Resolver() fault.Resolver {
	return fault.ResolverFunc(func() []fault.Entry {
		return []fault.Entry{
			fault.NewEntry("TimeoutFailure", &TimeoutFailure{}),
			fault.NewEntry("RateLimitFailure", &RateLimitFailure{}),
			fault.NewEntry("DispatchFailure", &DispatchFailure{}),
		}
	})
}
