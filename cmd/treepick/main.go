package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanderheijden86/treepick/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrNothingPicked):
		stop()
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "treepick: %v\n", err)
		stop()
		os.Exit(1)
	}
}
