package forms

// FieldView is the public, read-only picture of one field.
type FieldView struct {
	Name        string
	Value       any
	Pending     bool
	Invalid     bool
	Changed     bool
	Dirty       bool
	Failed      bool
	Validations map[string]bool
	// Messages holds the text of failed validators, only once the field failed.
	Messages []string
	// OnChange records user input for this field.
	OnChange func(value any)
}

// View aggregates every field. The Any flags are ORed across fields.
type View struct {
	AnyPending bool
	AnyInvalid bool
	AnyChanged bool
	AnyDirty   bool
	AnyFailed  bool
	Fields     map[string]FieldView
}

// Field returns the view of name, or the zero FieldView.
func (v View) Field(name string) FieldView {
	return v.Fields[name]
}

func (f *Form) view(s *formState) View {
	out := View{Fields: make(map[string]FieldView, len(s.fields))}
	for name, fld := range s.fields {
		fv := FieldView{
			Name:        name,
			Value:       fld.value,
			Pending:     len(fld.pending) > 0,
			Invalid:     fld.invalid(),
			Changed:     fld.changed,
			Dirty:       fld.dirty,
			Validations: make(map[string]bool, len(fld.validations)),
		}
		fv.Failed = fv.Invalid && fv.Dirty
		for k, v := range fld.validations {
			fv.Validations[k] = v
		}
		if fv.Failed {
			for _, vname := range f.validators[name] {
				if _, failed := fld.failed[vname]; !failed {
					continue
				}
				if msg := f.messages[name][vname]; msg != "" {
					fv.Messages = append(fv.Messages, msg)
				}
			}
		}
		fieldName := name
		fv.OnChange = func(value any) { f.Update(Values{fieldName: value}) }

		out.AnyPending = out.AnyPending || fv.Pending
		out.AnyInvalid = out.AnyInvalid || fv.Invalid
		out.AnyChanged = out.AnyChanged || fv.Changed
		out.AnyDirty = out.AnyDirty || fv.Dirty
		out.AnyFailed = out.AnyFailed || fv.Failed
		out.Fields[name] = fv
	}
	return out
}
