// Command poller runs the rate bot with long polling.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ratebot-service/internal/bootstrap"
	"ratebot-service/internal/config"
	"ratebot-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	logx.SetLevel(cfg.LogLevel)
	if err := cfg.Validate(config.VariantPoll); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.Build(ctx, cfg, config.VariantPoll)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer cleanup()

	logger.Info("ratebot started", zap.String("env", cfg.Env))
	if err := app.Run(ctx); err != nil {
		logger.Error("ratebot stopped", zap.Error(err))
		return
	}
	logger.Info("ratebot stopped")
}
