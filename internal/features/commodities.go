package features

import (
	"portafoglio/internal/core"
	"portafoglio/internal/forms"
	"portafoglio/internal/resources"
)

const CommoditiesResource = "commodities"

// Commodities is the module for items that can appear on a receipt.
type Commodities = Module[core.Commodity]

func NewCommodities(ops resources.Operations[core.Commodity], o Options) *Commodities {
	return newModule(CommoditiesResource, ops, o,
		Binding[core.Commodity]{
			Values: func(c core.Commodity) forms.Values {
				return forms.Values{"title": c.Title, "categoryId": c.CategoryID}
			},
			Payload: func(v forms.Values) resources.Payload { return partial(v, nil) },
		},
		func(*Commodities) forms.Schema {
			return forms.Schema{
				"title":      {"isEmpty": forms.IsEmpty},
				"categoryId": {"isEmpty": forms.IsEmpty},
			}
		},
		map[string]map[string]string{
			"title":      {"isEmpty": "Title is required"},
			"categoryId": {"isEmpty": "Pick a category"},
		},
	)
}
