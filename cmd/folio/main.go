package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Cancelled on SIGINT or SIGTERM; serve shuts down and closes sessions.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.Canceled):
		// 128 + SIGINT, as shells report an interrupted command.
		os.Exit(130)
	default:
		os.Exit(1)
	}
}
