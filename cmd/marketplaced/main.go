package main

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/config/di"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	config.Init("marketplace")
	defer sentry.Flush(2 * time.Second)

	container, err := di.NewContainer(config.Get())
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer func() {
		if err := container.Delete(); err != nil {
			zap.L().With(zap.Error(err)).Warn("Failed to close container")
		}
	}()

	d, err := container.GetDaemon()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start marketplace")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Execute(ctx); err != nil {
		zap.L().With(zap.Error(err)).Error("Marketplace exited")
	}
}
