package cli

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"portafoglio/internal/log"
	"portafoglio/internal/resources"
)

func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the caches fresh until interrupted",
		Long:  "Preload every resource, then poll and follow the change feed (when AMQP_URL is set) until SIGINT or SIGTERM. Each store change is printed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := ShutdownContext(cmd.Context())
			defer stop()

			out := &lockedPrinter{p: opts.printer(cmd)}
			a := opts.App
			unsubs := []func(){
				follow(a.Categories.Store, out),
				follow(a.Commodities.Store, out),
				follow(a.Transactions.Store, out),
				follow(a.Budget.Store, out),
				follow(a.Profile.Store, out),
			}
			defer func() {
				for _, u := range unsubs {
					u()
				}
			}()

			if err := a.Preload(ctx); err != nil {
				opts.Logger.WarnContext(ctx, "preload incomplete", log.FieldError, err)
			}
			opts.Logger.InfoContext(ctx, "watching")
			return a.Watch(ctx)
		},
	}
}

// lockedPrinter serializes output from store listeners.
type lockedPrinter struct {
	mu sync.Mutex
	p  printer
}

func (l *lockedPrinter) change(name string, st resources.ReadyState, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.p.line(fmt.Sprintf("%s: %s, %d items", name, st, n),
		map[string]any{"resource": name, "state": st.String(), "items": n})
}

func follow[T resources.Entity](s *resources.Store[T], out *lockedPrinter) func() {
	return s.Subscribe(func(st resources.State[T]) {
		out.change(s.Name(), st.ReadyState, len(st.Items))
	})
}
