package features

import (
	"portafoglio/internal/core"
	"portafoglio/internal/forms"
	"portafoglio/internal/resources"
)

const ProfileResource = "profile"

type Profile = Module[core.Profile]

// optionalPIN accepts an empty value so the profile can be saved without
// changing the PIN.
var optionalPIN forms.Check = func(value any) bool {
	if s, _ := value.(string); s == "" {
		return false
	}
	return forms.NotPIN(value)
}

func NewProfile(ops resources.Operations[core.Profile], o Options) *Profile {
	return newModule(ProfileResource, ops, o,
		Binding[core.Profile]{
			Values: func(p core.Profile) forms.Values {
				return forms.Values{"name": p.Name, "currency": p.Currency, "pin": ""}
			},
			Payload: func(v forms.Values) resources.Payload {
				out := partial(v, nil)
				if s, _ := out["pin"].(string); s == "" {
					delete(out, "pin")
				}
				return out
			},
		},
		func(*Profile) forms.Schema {
			return forms.Schema{
				"name": {"isEmpty": forms.IsEmpty},
				"pin":  {"notPIN": optionalPIN},
			}
		},
		map[string]map[string]string{
			"name": {"isEmpty": "Name is required"},
			"pin":  {"notPIN": "PIN must be 4 to 6 digits"},
		},
	)
}
