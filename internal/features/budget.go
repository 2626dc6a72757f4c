package features

import (
	"time"

	"portafoglio/internal/core"
	"portafoglio/internal/forms"
	"portafoglio/internal/resources"
)

const BudgetResource = "budget"

// Budget is the singleton monthly budget module.
type Budget = Module[core.Budget]

// NotMonth fails values that are not a "YYYY-MM" month.
var NotMonth forms.Check = func(value any) bool {
	s, ok := value.(string)
	if !ok {
		return true
	}
	_, err := time.Parse("2006-01", s)
	return err != nil
}

func NewBudget(ops resources.Operations[core.Budget], o Options) *Budget {
	return newModule(BudgetResource, ops, o,
		Binding[core.Budget]{
			Values: func(b core.Budget) forms.Values {
				v := forms.Values{"month": b.Month, "amount": ""}
				if b.Amount.Cents != 0 {
					v["amount"] = b.Amount.String()
				}
				return v
			},
			Payload: func(v forms.Values) resources.Payload {
				return partial(v, map[string]func(any) any{"amount": amountCents})
			},
		},
		func(*Budget) forms.Schema {
			return forms.Schema{
				"month":  {"notMonth": NotMonth},
				"amount": {"notAmount": forms.NotAmount},
			}
		},
		map[string]map[string]string{
			"month":  {"notMonth": "Use the YYYY-MM format"},
			"amount": {"notAmount": "Enter a positive amount"},
		},
	)
}
