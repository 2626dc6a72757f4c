package forms

import "fmt"

type field struct {
	name        string
	value       any
	initial     any
	pending     map[string]struct{}
	failed      map[string]struct{}
	changed     bool
	dirty       bool
	validations map[string]bool
}

func (f *field) invalid() bool { return len(f.failed) > 0 }

type formState struct {
	fields map[string]*field
}

type action interface{ isFormAction() }

type (
	valuesSet         struct{ values Values }
	valuesUpdated     struct{ values Values }
	allTouched        struct{}
	baselineReset     struct{}
	validationStarted struct{ field, validator string }
	validationSettled struct {
		field, validator string
		failed           bool
	}
)

func (valuesSet) isFormAction()         {}
func (valuesUpdated) isFormAction()     {}
func (allTouched) isFormAction()        {}
func (baselineReset) isFormAction()     {}
func (validationStarted) isFormAction() {}
func (validationSettled) isFormAction() {}

func reduce(s *formState, a action) *formState {
	switch a := a.(type) {
	case valuesSet:
		return s.edit(keys(a.values), func(f *field) {
			v := a.values[f.name]
			f.value, f.initial = v, v
			f.changed, f.dirty = false, false
		})
	case valuesUpdated:
		return s.edit(keys(a.values), func(f *field) {
			f.value = a.values[f.name]
			f.changed = !Equal(f.value, f.initial)
			f.dirty = true
		})
	case allTouched:
		return s.edit(keys(s.fields), func(f *field) {
			f.dirty = true
		})
	case baselineReset:
		return s.edit(keys(s.fields), func(f *field) {
			f.initial = f.value
			f.changed, f.dirty = false, false
		})
	case validationStarted:
		return s.edit([]string{a.field}, func(f *field) {
			f.pending = withKey(f.pending, a.validator)
		})
	case validationSettled:
		return s.edit([]string{a.field}, func(f *field) {
			f.pending = withoutKey(f.pending, a.validator)
			if a.failed {
				f.failed = withKey(f.failed, a.validator)
			} else {
				f.failed = withoutKey(f.failed, a.validator)
			}
			validations := make(map[string]bool, len(f.validations)+1)
			for k, v := range f.validations {
				validations[k] = v
			}
			validations[a.validator] = a.failed
			f.validations = validations
		})
	default:
		panic(fmt.Sprintf("forms: unknown action %T", a))
	}
}

// edit copies the named fields, applies fn to the copies and returns a new
// state. Names that are not fields are skipped; if none match, s is returned.
func (s *formState) edit(names []string, fn func(*field)) *formState {
	var next map[string]*field
	for _, name := range names {
		cur, ok := s.fields[name]
		if !ok {
			continue
		}
		if next == nil {
			next = make(map[string]*field, len(s.fields))
			for k, v := range s.fields {
				next[k] = v
			}
		}
		dup := *cur
		fn(&dup)
		next[name] = &dup
	}
	if next == nil {
		return s
	}
	return &formState{fields: next}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func withKey(set map[string]struct{}, key string) map[string]struct{} {
	if _, ok := set[key]; ok {
		return set
	}
	dup := make(map[string]struct{}, len(set)+1)
	for k := range set {
		dup[k] = struct{}{}
	}
	dup[key] = struct{}{}
	return dup
}

func withoutKey(set map[string]struct{}, key string) map[string]struct{} {
	if _, ok := set[key]; !ok {
		return set
	}
	dup := make(map[string]struct{}, len(set))
	for k := range set {
		if k != key {
			dup[k] = struct{}{}
		}
	}
	return dup
}
