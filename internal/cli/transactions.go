package cli

import (
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"portafoglio/internal/app"
	"portafoglio/internal/forms"
	"portafoglio/internal/reports"
)

func NewTransactionsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List and record transactions",
	}
	cmd.AddCommand(newTransactionsListCommand(opts))
	cmd.AddCommand(newTransactionsAddCommand(opts))
	return cmd
}

func newTransactionsListCommand(opts *RootOptions) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the transactions of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := url.Values{"year": {strconv.Itoa(year)}, "month": {strconv.Itoa(month)}}
			store := opts.App.Transactions.Store
			if err := app.Listed(store.List(ctx, query)); err != nil {
				return submitFailure(err, forms.View{})
			}

			cats := opts.App.Categories.Store
			cats.List(ctx, nil)
			titles := reports.Titles(cats.State().Items)

			currency := opts.App.Prefs.Currency
			items := store.State().Items
			rows := make([][]string, 0, len(items))
			for _, t := range items {
				title := titles[t.CategoryID]
				if title == "" {
					title = t.CategoryID
				}
				rows = append(rows, []string{t.ID, t.Date.String(), string(t.Kind), title, t.Amount.Format(currency), t.Note})
			}
			return opts.printer(cmd).table([]string{"ID", "DATE", "KIND", "CATEGORY", "AMOUNT", "NOTE"}, rows, items)
		},
	}
	now := time.Now()
	cmd.Flags().IntVar(&year, "year", now.Year(), "year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "month (1-12)")
	return cmd
}

func newTransactionsAddCommand(opts *RootOptions) *cobra.Command {
	var date, amount, category, kind, note string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			txs := opts.App.Transactions

			f, err := txs.NewForm(ctx, nil)
			if err != nil {
				return err
			}
			defer f.Close()

			values := forms.Values{"date": date, "amount": amount, "categoryId": category, "note": note}
			if kind == "" {
				kind = opts.App.Prefs.DefaultKind
			}
			values["kind"] = kind
			f.Update(values)

			t, err := txs.Submit(ctx, f, "")
			if err != nil {
				return submitFailure(err, f.View())
			}
			return opts.printer(cmd).line("recorded "+t.ID+" "+t.Amount.Format(opts.App.Prefs.Currency), t)
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&kind, "kind", "", "income or expense (default from prefs)")
	cmd.Flags().StringVar(&note, "note", "", "free text")
	return cmd
}
