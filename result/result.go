// Package result defines the two-case success/failure union carried on the
// wire by the codec layer.
//
// A Result[T] is always exactly one of two things: a success holding a value
// of type T, or a failure holding a fault. There is no third state and no
// "empty" result: the zero value of Result[T] is a success holding T's zero
// value, which keeps the invariant that a value is always present.
package result

import "result-rpc/fault"

// Result is the binary union. Construct with Success or Failure; inspect
// with IsSuccess, Value, or Fault. Values are immutable once constructed.
type Result[T any] struct {
	value T
	flt   fault.Fault
}

// Success returns a result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure returns a result holding f. A nil fault is coerced to a generic
// base fault so the failure case always carries a usable error value.
func Failure[T any](f fault.Fault) Result[T] {
	if f == nil {
		f = &fault.Base{Code: "error.unspecified"}
	}
	return Result[T]{flt: f}
}

// IsSuccess reports whether the result holds a value.
func (r Result[T]) IsSuccess() bool {
	return r.flt == nil
}

// Value returns the success value. The second return is false for failures.
func (r Result[T]) Value() (T, bool) {
	if r.flt != nil {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Fault returns the failure fault. The second return is false for successes.
func (r Result[T]) Fault() (fault.Fault, bool) {
	if r.flt == nil {
		return nil, false
	}
	return r.flt, true
}

// Match invokes exactly one of the two callbacks and returns its result.
func Match[T, U any](r Result[T], onSuccess func(T) U, onFailure func(fault.Fault) U) U {
	if r.flt != nil {
		return onFailure(r.flt)
	}
	return onSuccess(r.value)
}

// Map transforms the success value, passing failures through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.flt != nil {
		return Result[U]{flt: r.flt}
	}
	return Success(fn(r.value))
}

// Bind chains a result-producing function, passing failures through.
func Bind[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.flt != nil {
		return Result[U]{flt: r.flt}
	}
	return fn(r.value)
}

// MapFault transforms the fault of a failure, passing successes through.
func MapFault[T any](r Result[T], fn func(fault.Fault) fault.Fault) Result[T] {
	if r.flt == nil {
		return r
	}
	return Failure[T](fn(r.flt))
}

// Ensure turns a success into a failure when the predicate rejects its value.
func Ensure[T any](r Result[T], pred func(T) bool, f fault.Fault) Result[T] {
	if r.flt != nil || pred(r.value) {
		return r
	}
	return Failure[T](f)
}

// Tap runs a side effect on the success value and returns the result as-is.
func Tap[T any](r Result[T], fn func(T)) Result[T] {
	if r.flt == nil {
		fn(r.value)
	}
	return r
}

// Unit is the payload type for operations that succeed without producing
// data. It serializes as an empty JSON object.
type Unit struct{}
