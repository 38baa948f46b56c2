package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/c4builder"
	appcfg "github.com/park285/Cheese-Connect4-bot/internal/config"
	"github.com/park285/Cheese-Connect4-bot/internal/httpapi"
	"github.com/park285/Cheese-Connect4-bot/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.Named("c4-api")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := c4builder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("c4_init_failed", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	app := httpapi.New(deps.Service, deps.Metrics, logger.Named("http"))
	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(cfg.HTTPAddr) }()
	logger.Info("c4_api_started", zap.String("addr", cfg.HTTPAddr), zap.String("store", string(cfg.Store)))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("c4_api_listen_failed", zap.Error(err))
		}
	}
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Warn("c4_api_shutdown_failed", zap.Error(err))
	}
}
