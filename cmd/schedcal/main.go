package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	appLog "schedcal/internal/log"
)

var version = "dev"

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	err := newRootCommand().ExecuteContext(ctx)
	if err != nil {
		appLog.Error("schedcal failed", err)
	}
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}
