// Package sheets exports a month of transactions to a spreadsheet.
package sheets

import (
	"context"
	"fmt"

	"portafoglio/internal/core"
)

// Export is one month ready to be written out.
type Export struct {
	Overview     core.MonthOverview
	Transactions []core.Transaction
	// Categories maps category id to title for readable rows.
	Categories map[string]string
}

// MonthExporter writes an Export somewhere and returns a reference to
// the written range.
type MonthExporter interface {
	ExportMonth(ctx context.Context, e Export) (ref string, err error)
}

// Header is the first row of every export.
var Header = []any{"Date", "Kind", "Category", "Note", "Amount"}

// Rows renders e as spreadsheet rows: a header, one row per transaction,
// a blank separator and the income, expense and balance totals.
func Rows(e Export) [][]any {
	rows := make([][]any, 0, len(e.Transactions)+5)
	rows = append(rows, Header)
	for _, t := range e.Transactions {
		category := e.Categories[t.CategoryID]
		if category == "" {
			category = t.CategoryID
		}
		amount := t.Amount
		if t.Kind == core.Expense {
			amount = core.Money{Cents: -amount.Cents}
		}
		rows = append(rows, []any{t.Date.String(), string(t.Kind), category, t.Note, amount.String()})
	}
	ov := e.Overview
	rows = append(rows,
		[]any{},
		[]any{"", "", "", "Income", ov.Income.String()},
		[]any{"", "", "", "Expense", ov.Expense.String()},
		[]any{"", "", "", "Balance", ov.Balance().String()},
	)
	return rows
}

// SheetName is "<year>-<month> <base>", e.g. "2025-03 Portafoglio".
func SheetName(base string, year, month int) string {
	if base == "" {
		base = "Portafoglio"
	}
	return fmt.Sprintf("%04d-%02d %s", year, month, base)
}
