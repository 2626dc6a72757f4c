package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"portafoglio/internal/app"
	"portafoglio/internal/log"
)

// RootOptions holds global flags and the app built for the command.
type RootOptions struct {
	Format  string
	EnvFile string

	App    *app.App
	Logger *log.Logger
	// Deps is passed to app.New; tests inject collaborators here.
	Deps app.Deps
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}

	cmd := &cobra.Command{
		Use:           "portafoglio",
		Short:         "Personal finance from the terminal",
		Long:          "Track categories, transactions and a monthly budget against the portafoglio API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			if err := LoadEnvFile(opts.EnvFile); err != nil {
				return &ExitError{Code: ExitCommandError, Message: "environment", Err: err}
			}
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "configuration", Err: err}
			}
			opts.Logger = SetupLogger(cfg, cmd.ErrOrStderr())
			opts.App, err = app.New(cmd.Context(), cfg, opts.Logger, opts.Deps)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "startup", Err: err}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load environment from this file instead of .env")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewCategoriesCommand(opts))
	cmd.AddCommand(NewTransactionsCommand(opts))
	cmd.AddCommand(NewBudgetCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func (o *RootOptions) printer(cmd *cobra.Command) printer {
	return printer{format: o.Format, w: cmd.OutOrStdout()}
}

// Close releases the app. Cobra skips post-run hooks when a command
// fails, so callers also close after Execute.
func (o *RootOptions) Close() error {
	if o.App == nil {
		return nil
	}
	err := o.App.Close()
	o.App = nil
	return err
}
