package cli

import (
	"github.com/spf13/cobra"

	"portafoglio/internal/app"
	"portafoglio/internal/forms"
)

func NewCategoriesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Manage categories",
	}
	cmd.AddCommand(newCategoriesListCommand(opts))
	cmd.AddCommand(newCategoriesAddCommand(opts))
	cmd.AddCommand(newCategoriesRemoveCommand(opts))
	return cmd
}

func newCategoriesListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := opts.App.Categories.Store
			if err := app.Listed(store.List(cmd.Context(), nil)); err != nil {
				return submitFailure(err, forms.View{})
			}
			items := store.State().Items
			rows := make([][]string, 0, len(items))
			for _, c := range items {
				rows = append(rows, []string{c.ID, c.Title, string(c.Kind)})
			}
			return opts.printer(cmd).table([]string{"ID", "TITLE", "KIND"}, rows, items)
		},
	}
}

func newCategoriesAddCommand(opts *RootOptions) *cobra.Command {
	var id, title, kind string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cats := opts.App.Categories

			f, err := cats.NewForm(ctx, nil)
			if err != nil {
				return err
			}
			defer f.Close()
			f.Update(forms.Values{"id": id, "title": title, "kind": kind})

			c, err := cats.Submit(ctx, f, "")
			if err != nil {
				return submitFailure(err, f.View())
			}
			return opts.printer(cmd).line("created "+c.ID, c)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "identifier")
	cmd.Flags().StringVar(&title, "title", "", "display title")
	cmd.Flags().StringVar(&kind, "kind", "expense", "income or expense")
	return cmd
}

func newCategoriesRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a category",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.App.Categories.Remove(cmd.Context(), args[0]); err != nil {
				return submitFailure(err, forms.View{})
			}
			return opts.printer(cmd).line("removed "+args[0], map[string]any{"removed": args[0]})
		},
	}
}
