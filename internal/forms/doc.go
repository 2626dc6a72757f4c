// Package forms tracks a named set of input fields: current value, the
// baseline it is compared against, whether the user has touched it, and
// the outcome of its validators.
//
// Validators classify a value as invalid (true) or valid (false). A Check
// runs inline; an AsyncCheck runs on its own goroutine and marks the field
// pending until it returns. A validator that panics or returns an error
// counts as invalid.
//
// Errors surface only once a field is dirty:
//
//	invalid = any validator failed
//	failed  = invalid && dirty
//	pending = any async validator in flight
//
// Async results are applied when they arrive, even if the value changed in
// the meantime. There is no cancellation of in-flight validators.
package forms
