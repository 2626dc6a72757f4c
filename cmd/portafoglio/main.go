package main

import (
	"context"
	"fmt"
	"os"

	"portafoglio/internal/cli"
)

func main() {
	opts := &cli.RootOptions{}
	cmd := cli.NewRootCommand(opts)
	err := cmd.ExecuteContext(context.Background())
	_ = opts.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
