package forms

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// Blob is a file-like value, e.g. a receipt attachment. Blobs compare by
// reference: two *Blob values are equal only if they are the same pointer.
type Blob struct {
	Name string
	Type string
	Data []byte
}

var equalOptions = cmp.Options{
	cmp.Comparer(func(a, b *Blob) bool { return a == b }),
}

// Equal reports whether two field values are the same for change
// detection. Primitives compare by value, maps, slices and structs
// structurally, time values with time.Time.Equal, and *Blob by reference.
func Equal(a, b any) (eq bool) {
	defer func() {
		// cmp refuses structs with unexported fields.
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return cmp.Equal(a, b, equalOptions)
}
