package forms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"portafoglio/internal/log"
	"portafoglio/internal/store"
)

var (
	ErrUnknownField = errors.New("schema names an unknown field")
	ErrNilValidator = errors.New("nil validator")
)

// Values maps field names to values.
type Values map[string]any

// Schema maps field name to validator name to validator.
type Schema map[string]map[string]Validator

// Config describes a form.
type Config struct {
	// Values holds the initial value of every field. Its keys define the field set.
	Values Values
	Schema Schema
	// Messages maps field name to validator name to user-facing text.
	Messages map[string]map[string]string
	// Window is the notification coalescing window. Zero selects
	// store.DefaultWindow; a negative window disables coalescing.
	Window time.Duration
	Logger *log.Logger
}

// Form is a set of fields with validation state.
type Form struct {
	ctx        context.Context
	schema     Schema
	validators map[string][]string // field -> sorted validator names
	messages   map[string]map[string]string
	state      *store.Store[formState, action]
	logger     *log.Logger
	inflight   sync.WaitGroup
}

// New builds the form and runs every validator once. Fields start clean,
// so initial failures are known but not yet surfaced.
//
// ctx is handed to async validators for the lifetime of the form.
func New(ctx context.Context, cfg Config) (*Form, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	validators := make(map[string][]string, len(cfg.Schema))
	for name, set := range cfg.Schema {
		if _, ok := cfg.Values[name]; !ok {
			return nil, fmt.Errorf("field %q: %w", name, ErrUnknownField)
		}
		names := make([]string, 0, len(set))
		for vname, v := range set {
			if v == nil || isNilFunc(v) {
				return nil, fmt.Errorf("field %q validator %q: %w", name, vname, ErrNilValidator)
			}
			names = append(names, vname)
		}
		sort.Strings(names)
		validators[name] = names
	}

	fields := make(map[string]*field, len(cfg.Values))
	for name, v := range cfg.Values {
		validations := make(map[string]bool, len(validators[name]))
		for _, vname := range validators[name] {
			validations[vname] = false
		}
		fields[name] = &field{name: name, value: v, initial: v, validations: validations}
	}

	f := &Form{
		ctx:        ctx,
		schema:     cfg.Schema,
		validators: validators,
		messages:   cfg.Messages,
		logger:     logger.WithComponent(log.ComponentForms),
	}
	window := cfg.Window
	if window == 0 {
		window = store.DefaultWindow
	}
	f.state = store.New(&formState{fields: fields}, reduce,
		store.WithWindow(window),
		store.WithLogger(logger),
		store.WithName("form"))

	for _, name := range sortedKeys(fields) {
		f.runValidators(name)
	}
	return f, nil
}

func isNilFunc(v Validator) bool {
	switch fn := v.(type) {
	case Check:
		return fn == nil
	case AsyncCheck:
		return fn == nil
	}
	return false
}

// Set commits values as the new baseline: value and initial value are
// replaced, changed and dirty are cleared, then the fields are re-validated.
func (f *Form) Set(values Values) {
	f.warnUnknown(values)
	f.state.Dispatch(valuesSet{values: cloneValues(values)})
	for _, name := range sortedKeys(values) {
		f.runValidators(name)
	}
}

// Update records user input: the value changes, changed is recomputed
// against the baseline, the field becomes dirty and is re-validated.
func (f *Form) Update(values Values) {
	f.warnUnknown(values)
	f.state.Dispatch(valuesUpdated{values: cloneValues(values)})
	for _, name := range sortedKeys(values) {
		f.runValidators(name)
	}
}

// Validate marks every field dirty and re-runs every validator.
func (f *Form) Validate() {
	f.state.Dispatch(allTouched{})
	for _, name := range sortedKeys(f.state.State().fields) {
		f.runValidators(name)
	}
}

// Reset makes the current values the baseline and clears changed and dirty.
// Validators are not re-run.
func (f *Form) Reset() {
	f.state.Dispatch(baselineReset{})
}

// Values returns the current value of every field.
func (f *Form) Values() Values {
	fields := f.state.State().fields
	out := make(Values, len(fields))
	for name, fld := range fields {
		out[name] = fld.value
	}
	return out
}

// Changed returns the current value of every field that differs from its baseline.
func (f *Form) Changed() Values {
	fields := f.state.State().fields
	out := make(Values)
	for name, fld := range fields {
		if fld.changed {
			out[name] = fld.value
		}
	}
	return out
}

// Wait blocks until every async validator started so far has settled.
func (f *Form) Wait() {
	f.inflight.Wait()
}

// Subscribe calls l with a fresh View after each coalesced change.
func (f *Form) Subscribe(l func(View)) (unsubscribe func()) {
	return f.state.Subscribe(func(s *formState) { l(f.view(s)) })
}

// View returns the rolled-up form state.
func (f *Form) View() View {
	return f.view(f.state.State())
}

// Close drops pending notifications. In-flight validators still settle.
func (f *Form) Close() {
	f.state.Close()
}

func (f *Form) runValidators(name string) {
	fld, ok := f.state.State().fields[name]
	if !ok {
		return
	}
	value := fld.value
	ctx := withBaseline(f.ctx, fld.initial)
	for _, vname := range f.validators[name] {
		switch fn := f.schema[name][vname].(type) {
		case Check:
			failed, err := runCheck(fn, value)
			f.logFailure(name, vname, err)
			f.state.Dispatch(validationSettled{field: name, validator: vname, failed: failed})
		case AsyncCheck:
			f.state.Dispatch(validationStarted{field: name, validator: vname})
			f.inflight.Add(1)
			go func(vname string, fn AsyncCheck) {
				defer f.inflight.Done()
				failed, err := runAsyncCheck(ctx, fn, value)
				f.logFailure(name, vname, err)
				f.state.Dispatch(validationSettled{field: name, validator: vname, failed: failed})
			}(vname, fn)
		}
	}
}

func (f *Form) logFailure(fieldName, validator string, err error) {
	if err == nil {
		return
	}
	f.logger.Debug("validator failed closed",
		log.FieldField, fieldName, log.FieldValidator, validator, log.FieldError, err)
}

func (f *Form) warnUnknown(values Values) {
	fields := f.state.State().fields
	for name := range values {
		if _, ok := fields[name]; !ok {
			f.logger.Debug("ignoring unknown field", log.FieldField, name)
		}
	}
}

func cloneValues(values Values) Values {
	dup := make(Values, len(values))
	for k, v := range values {
		dup[k] = v
	}
	return dup
}

func sortedKeys[V any](m map[string]V) []string {
	out := keys(m)
	sort.Strings(out)
	return out
}
