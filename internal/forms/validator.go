package forms

import (
	"context"
	"fmt"
)

// Validator is either a Check or an AsyncCheck.
type Validator interface {
	isValidator()
}

// Check is a synchronous validator. It returns true when value is invalid.
type Check func(value any) bool

// AsyncCheck is a validator that may block, e.g. on an API call.
// It returns true when value is invalid; an error also counts as invalid.
type AsyncCheck func(ctx context.Context, value any) (bool, error)

type baselineKey struct{}

// Baseline returns the committed value of the field an AsyncCheck is
// validating, as set by New or Set.
func Baseline(ctx context.Context) (any, bool) {
	v, ok := ctx.Value(baselineKey{}).(baselineValue)
	return v.value, ok
}

type baselineValue struct{ value any }

func withBaseline(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, baselineKey{}, baselineValue{value: v})
}

func (Check) isValidator()      {}
func (AsyncCheck) isValidator() {}

func runCheck(fn Check, value any) (failed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			failed, err = true, fmt.Errorf("validator panic: %v", r)
		}
	}()
	return fn(value), nil
}

func runAsyncCheck(ctx context.Context, fn AsyncCheck, value any) (failed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			failed, err = true, fmt.Errorf("validator panic: %v", r)
		}
	}()
	failed, err = fn(ctx, value)
	if err != nil {
		return true, err
	}
	return failed, nil
}
