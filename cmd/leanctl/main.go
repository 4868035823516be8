package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/leanctl/leanctl/cmd/leanctl/cmd"
)

func main() {
	// Ctrl-C cancels the command context so an attached run can stop and
	// remove its container before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
