// Package main is the entry point for the lijstje CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lijstje/internal/backend/appwrite"
	"lijstje/internal/backend/googletasks"
	"lijstje/internal/backend/local"
	"lijstje/internal/cli"
	"lijstje/internal/commands"
	"lijstje/internal/config"
	"lijstje/internal/gateway"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newGateway)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newGateway opens the backend named by cfg.Backend.
func newGateway(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	switch cfg.Backend {
	case config.BackendAppwrite:
		return appwrite.New(cfg), nil
	case config.BackendGoogleTasks:
		return googletasks.New(ctx, cfg, os.Stderr)
	case config.BackendLocal:
		return local.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
