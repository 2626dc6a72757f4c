package features

import (
	"portafoglio/internal/core"
	"portafoglio/internal/forms"
	"portafoglio/internal/resources"
)

const TransactionsResource = "transactions"

// Transactions is the income and expense ledger module.
type Transactions = Module[core.Transaction]

// NotDate fails values that are not a valid YYYY-MM-DD date.
var NotDate forms.Check = func(value any) bool {
	switch v := value.(type) {
	case string:
		_, err := core.ParseDate(v)
		return err != nil
	case core.Date:
		return v.Validate() != nil
	default:
		return true
	}
}

var transactionConv = map[string]func(any) any{"amount": amountCents}

func NewTransactions(ops resources.Operations[core.Transaction], o Options) *Transactions {
	return newModule(TransactionsResource, ops, o,
		Binding[core.Transaction]{
			Values: func(t core.Transaction) forms.Values {
				v := forms.Values{
					"kind":       string(t.Kind),
					"date":       "",
					"categoryId": t.CategoryID,
					"amount":     "",
					"note":       t.Note,
				}
				if !t.Date.IsZero() {
					v["date"] = t.Date.String()
				}
				if t.Amount.Cents != 0 {
					v["amount"] = t.Amount.String()
				}
				if v["kind"] == "" {
					v["kind"] = string(core.Expense)
				}
				return v
			},
			Payload: func(v forms.Values) resources.Payload { return partial(v, transactionConv) },
		},
		func(*Transactions) forms.Schema {
			return forms.Schema{
				"kind":       {"notKind": forms.NotKind},
				"date":       {"isEmpty": forms.IsEmpty, "notDate": NotDate},
				"amount":     {"notAmount": forms.NotAmount},
				"categoryId": {"isEmpty": forms.IsEmpty},
				"note":       {"tooLong": forms.MaxLength(core.MaxNoteLength)},
			}
		},
		map[string]map[string]string{
			"kind":       {"notKind": "Kind must be income or expense"},
			"date":       {"isEmpty": "Date is required", "notDate": "Use the YYYY-MM-DD format"},
			"amount":     {"notAmount": "Enter a positive amount"},
			"categoryId": {"isEmpty": "Pick a category"},
			"note":       {"tooLong": "Note is too long"},
		},
	)
}

// amountCents converts a decimal string to cents; other values pass through.
func amountCents(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return int64(0)
	}
	return cents
}
