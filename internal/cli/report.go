package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"portafoglio/internal/forms"
)

func NewReportCommand(opts *RootOptions) *cobra.Command {
	var year, month int
	var export bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a month against the budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month < 1 || month > 12 {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid month %d", month)}
			}
			ctx := cmd.Context()
			r, err := opts.App.MonthReport(ctx, year, month)
			if err != nil {
				return submitFailure(err, forms.View{})
			}

			out := opts.printer(cmd)
			cur := opts.App.Prefs.Currency
			ov := r.Overview
			rows := [][]string{
				{"income", ov.Income.Format(cur)},
				{"expense", ov.Expense.Format(cur)},
				{"balance", ov.Balance().Format(cur)},
			}
			for _, c := range ov.ByCategory {
				rows = append(rows, []string{"  " + c.Name, c.Amount.Format(cur)})
			}
			if r.HasBudget {
				rows = append(rows,
					[]string{"budget", r.Usage.Budget.Format(cur)},
					[]string{"remaining", r.Usage.Remaining.Format(cur)},
					[]string{"used", strconv.Itoa(r.Usage.Percent) + "%"},
				)
			}
			if err := out.table([]string{fmt.Sprintf("%04d-%02d", year, month), ""}, rows, r); err != nil {
				return err
			}

			if !export {
				return nil
			}
			ref, err := opts.App.ExportMonth(ctx, year, month)
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: "export", Err: err}
			}
			if opts.Format == "json" {
				return nil
			}
			return out.line("exported to "+ref, nil)
		},
	}
	now := time.Now()
	cmd.Flags().IntVar(&year, "year", now.Year(), "year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "month (1-12)")
	cmd.Flags().BoolVar(&export, "export", false, "also export the month to the configured sheet")
	return cmd
}
