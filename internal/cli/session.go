package cli

import (
	"github.com/spf13/cobra"

	"portafoglio/internal/forms"
)

func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session with your PIN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sessions := opts.App.Sessions

			f, err := sessions.NewForm(ctx, nil)
			if err != nil {
				return err
			}
			defer f.Close()
			f.Update(forms.Values{"pin": pin})

			s, err := sessions.Login(ctx, f)
			if err != nil {
				return submitFailure(err, f.View())
			}
			return opts.printer(cmd).line("logged in", map[string]any{"session": s.ID, "expiresAt": s.ExpiresAt})
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "4 to 6 digit PIN")
	return cmd
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.App.Sessions.Logout(cmd.Context()); err != nil {
				return &ExitError{Code: ExitFailure, Message: "logout", Err: err}
			}
			return opts.printer(cmd).line("logged out", map[string]any{"ok": true})
		},
	}
}
