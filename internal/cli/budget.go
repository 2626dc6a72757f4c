package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"portafoglio/internal/app"
	"portafoglio/internal/core"
	"portafoglio/internal/forms"
)

func NewBudgetCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show or set the monthly budget",
	}
	cmd.AddCommand(newBudgetShowCommand(opts))
	cmd.AddCommand(newBudgetSetCommand(opts))
	return cmd
}

func newBudgetShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := opts.App.Budget.Store
			if err := app.Listed(store.List(cmd.Context(), nil)); err != nil {
				return submitFailure(err, forms.View{})
			}
			items := store.State().Items
			if len(items) == 0 {
				return opts.printer(cmd).line("no budget set", nil)
			}
			b := items[0]
			return opts.printer(cmd).line(fmt.Sprintf("%s: %s", b.Month, b.Amount.Format(opts.App.Prefs.Currency)), b)
		},
	}
}

func newBudgetSetCommand(opts *RootOptions) *cobra.Command {
	var month, amount string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the budget for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			budget := opts.App.Budget
			if amount == "" {
				amount = opts.App.Prefs.Budget
			}

			// Patch the existing budget when there is one, create otherwise.
			var current *core.Budget
			id := ""
			if err := app.Listed(budget.Store.List(ctx, nil)); err != nil {
				return submitFailure(err, forms.View{})
			}
			if items := budget.Store.State().Items; len(items) > 0 {
				current, id = &items[0], items[0].ID
			}
			f, err := budget.NewForm(ctx, current)
			if err != nil {
				return err
			}
			defer f.Close()
			f.Update(forms.Values{"month": month, "amount": amount})

			b, err := budget.Submit(ctx, f, id)
			if err != nil {
				return submitFailure(err, f.View())
			}
			return opts.printer(cmd).line(fmt.Sprintf("budget %s: %s", b.Month, b.Amount.Format(opts.App.Prefs.Currency)), b)
		},
	}
	cmd.Flags().StringVar(&month, "month", time.Now().Format("2006-01"), "month (YYYY-MM)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 1500 (default from prefs)")
	return cmd
}
