// Package result provides a two-case outcome type used by the token core
// instead of (value, error) pairs.
//
// A Result is either a success carrying a value or a failure carrying an
// ordered list of error messages. Steps of a multi-stage operation are chained
// with Bind so the first failure short-circuits the rest, and independent
// results are aggregated with Combine so that every failure message is kept.
package result

import (
	"errors"
	"strings"
)

// Result is the outcome of a fallible step.
// The zero value is a failure with no messages; use Success or Failure to build one.
type Result[T any] struct {
	value  T
	errs   []string
	failed bool
	set    bool
}

// Success returns a successful result holding value.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value, set: true}
}

// Failure returns a failed result holding the given messages in order.
func Failure[T any](messages ...string) Result[T] {
	errs := make([]string, len(messages))
	copy(errs, messages)
	return Result[T]{errs: errs, failed: true, set: true}
}

// FromError converts a Go error into a Result. A nil error gives a success.
func FromError[T any](value T, err error) Result[T] {
	if err != nil {
		return Failure[T](err.Error())
	}
	return Success(value)
}

// IsSuccess reports whether r holds a value.
func (r Result[T]) IsSuccess() bool { return r.set && !r.failed }

// IsFailure reports whether r holds error messages.
func (r Result[T]) IsFailure() bool { return !r.IsSuccess() }

// Value returns the success value and true, or the zero value and false.
func (r Result[T]) Value() (T, bool) {
	if r.IsSuccess() {
		return r.value, true
	}
	var zero T
	return zero, false
}

// Errors returns a copy of the failure messages (nil for a success).
func (r Result[T]) Errors() []string {
	if r.IsSuccess() {
		return nil
	}
	if !r.set {
		return []string{"result was not initialized"}
	}
	out := make([]string, len(r.errs))
	copy(out, r.errs)
	return out
}

// Err joins the failure messages into a single error, or returns nil on success.
func (r Result[T]) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return errors.New(strings.Join(r.Errors(), "; "))
}

// Match runs onSuccess or onFailure depending on the case of r.
func Match[T, U any](r Result[T], onSuccess func(T) U, onFailure func([]string) U) U {
	if v, ok := r.Value(); ok {
		return onSuccess(v)
	}
	return onFailure(r.Errors())
}

// Map transforms the success value of r, passing failures through unchanged.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if v, ok := r.Value(); ok {
		return Success(f(v))
	}
	return Failure[U](r.Errors()...)
}

// Bind chains a fallible step onto r. f is not called when r is a failure.
func Bind[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if v, ok := r.Value(); ok {
		return f(v)
	}
	return Failure[U](r.Errors()...)
}

// Combine collects the values of all results in order. If any result failed,
// the combined result is a failure holding every failure message, in order.
func Combine[T any](results ...Result[T]) Result[[]T] {
	values := make([]T, 0, len(results))
	var errs []string
	failed := false
	for _, r := range results {
		if v, ok := r.Value(); ok {
			values = append(values, v)
			continue
		}
		failed = true
		errs = append(errs, r.Errors()...)
	}
	if failed {
		return Failure[[]T](errs...)
	}
	return Success(values)
}
