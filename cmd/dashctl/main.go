// Command dashctl normalizes, reports on and uploads dashboard data files.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
