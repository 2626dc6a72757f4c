package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Amount     Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Income     Money
	Expense    Money
	ByCategory []CategoryAmount
	Count      int
}

// Balance is income minus expense.
func (o MonthOverview) Balance() Money {
	return Money{Cents: o.Income.Cents - o.Expense.Cents}
}
