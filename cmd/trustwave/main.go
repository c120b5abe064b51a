// Package main provides the trustwave command-line tool for inspecting the
// catalog and running maintenance jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, cmdCtx := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if closeErr := cmdCtx.close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", closeErr)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
