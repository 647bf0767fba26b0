package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/mba-counselor/internal/app"
	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/shutdown"
)

func main() {
	cfg := app.LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if observability.Enabled() {
		observability.Init(log)
	}
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	a.Start()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server exited", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	graceCtx, cancel := shutdown.GraceContext(shutdown.DefaultGracePeriod)
	defer cancel()
	if err := a.Shutdown(graceCtx); err != nil {
		log.Warn("server shutdown", "error", err)
	}
	if err := shutdownOTel(graceCtx); err != nil {
		log.Warn("otel shutdown", "error", err)
	}
}
