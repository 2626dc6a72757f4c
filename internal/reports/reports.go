// Package reports derives month summaries from cached transactions.
package reports

import (
	"portafoglio/internal/core"
)

// Monthly totals the transactions dated in year/month. Expenses are also
// summed per category in the order categories first appear. titles maps
// category id to a display name and may be nil.
func Monthly(txs []core.Transaction, year, month int, titles map[string]string) core.MonthOverview {
	ov := core.MonthOverview{Year: year, Month: month}
	index := make(map[string]int)

	for _, t := range txs {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		ov.Count++
		switch t.Kind {
		case core.Income:
			ov.Income.Cents += t.Amount.Cents
		case core.Expense:
			ov.Expense.Cents += t.Amount.Cents
			i, ok := index[t.CategoryID]
			if !ok {
				name := titles[t.CategoryID]
				if name == "" {
					name = t.CategoryID
				}
				i = len(ov.ByCategory)
				index[t.CategoryID] = i
				ov.ByCategory = append(ov.ByCategory, core.CategoryAmount{CategoryID: t.CategoryID, Name: name})
			}
			ov.ByCategory[i].Amount.Cents += t.Amount.Cents
		}
	}
	return ov
}

// Usage is how much of a monthly budget has been spent.
type Usage struct {
	Budget    core.Money
	Spent     core.Money
	Remaining core.Money
	// Percent is Spent over Budget in whole percent, 0 when there is no budget.
	Percent int
	Over    bool
}

// BudgetUsage compares the month's expenses with budget.
func BudgetUsage(ov core.MonthOverview, budget core.Budget) Usage {
	u := Usage{
		Budget:    budget.Amount,
		Spent:     ov.Expense,
		Remaining: core.Money{Cents: budget.Amount.Cents - ov.Expense.Cents},
	}
	if budget.Amount.Cents > 0 {
		u.Percent = int(ov.Expense.Cents * 100 / budget.Amount.Cents)
	}
	u.Over = u.Remaining.Cents < 0
	return u
}

// Titles indexes categories by id.
func Titles(categories []core.Category) map[string]string {
	out := make(map[string]string, len(categories))
	for _, c := range categories {
		out[c.ID] = c.Title
	}
	return out
}
