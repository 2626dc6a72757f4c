package forms

import (
	"context"
	"strings"
	"unicode/utf8"

	"portafoglio/internal/core"
)

// IsEmpty fails nil values, empty strings and empty collections.
var IsEmpty Check = func(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case *Blob:
		return v == nil
	case core.Date:
		return v.IsZero()
	default:
		return false
	}
}

// NotAmount fails anything that is not a positive money amount. Strings
// are parsed with core.ParseDecimalToCents.
var NotAmount Check = func(value any) bool {
	switch v := value.(type) {
	case string:
		_, err := core.ParseDecimalToCents(v)
		return err != nil
	case core.Money:
		return v.Validate() != nil
	case int64:
		return v <= 0
	case int:
		return v <= 0
	default:
		return true
	}
}

// NotPIN fails strings that are not 4 to 6 ASCII digits.
var NotPIN Check = func(value any) bool {
	s, ok := value.(string)
	if !ok || len(s) < 4 || len(s) > 6 {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

// NotKind fails values that are not "income" or "expense".
var NotKind Check = func(value any) bool {
	switch v := value.(type) {
	case string:
		return !core.Kind(v).Valid()
	case core.Kind:
		return !v.Valid()
	default:
		return true
	}
}

// MaxLength fails strings longer than n characters.
func MaxLength(n int) Check {
	return func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		return utf8.RuneCountInString(s) > n
	}
}

// Taken builds an async validator that fails when exists reports the
// trimmed string value as already in use. Empty values pass, and so does
// the field's own committed value; pair it with IsEmpty when the field is
// required.
func Taken(exists func(ctx context.Context, id string) (bool, error)) AsyncCheck {
	return func(ctx context.Context, value any) (bool, error) {
		s, _ := value.(string)
		s = strings.TrimSpace(s)
		if s == "" {
			return false, nil
		}
		// The entity being edited owns its committed id.
		if own, ok := Baseline(ctx); ok {
			if o, _ := own.(string); strings.TrimSpace(o) == s {
				return false, nil
			}
		}
		return exists(ctx, s)
	}
}
