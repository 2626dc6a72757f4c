package features

import (
	"portafoglio/internal/core"
	"portafoglio/internal/forms"
	"portafoglio/internal/resources"
)

// CategoriesResource is the collection path and cache name.
const CategoriesResource = "categories"

// Categories is the category module.
type Categories = Module[core.Category]

var categoryMessages = map[string]map[string]string{
	"id": {
		"isEmpty": "Identifier is required",
		"taken":   "Identifier already in use",
	},
	"title": {
		"isEmpty": "Title is required",
		"tooLong": "Title must be at most 64 characters",
	},
	"kind": {"notKind": "Kind must be income or expense"},
}

// NewCategories binds the category collection. The id field is checked
// against the API for collisions.
func NewCategories(ops resources.Operations[core.Category], o Options) *Categories {
	return newModule(CategoriesResource, ops, o,
		Binding[core.Category]{
			Values: func(c core.Category) forms.Values {
				return forms.Values{"id": c.ID, "title": c.Title, "kind": string(c.Kind)}
			},
			Payload: func(v forms.Values) resources.Payload {
				return partial(v, nil)
			},
		},
		func(m *Categories) forms.Schema {
			return forms.Schema{
				"id": {
					"isEmpty": forms.IsEmpty,
					"taken":   forms.Taken(m.Exists),
				},
				"title": {
					"isEmpty": forms.IsEmpty,
					"tooLong": forms.MaxLength(64),
				},
				"kind": {"notKind": forms.NotKind},
			}
		},
		categoryMessages,
	)
}
