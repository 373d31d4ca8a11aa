package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/meetbridge/adapter/cli"
	"github.com/felixgeelhaar/meetbridge/pkg/observability"
	"github.com/joho/godotenv"
)

func main() {
	// .env is read before the logger so LOG_LEVEL and LOG_FORMAT apply.
	_ = godotenv.Load()

	logger := observability.LoggerFromEnv(cli.Version)
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
