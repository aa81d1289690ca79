// ====================================
// File: cmd/rugwatchd/main.go
// ====================================
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/rugchef/rugwatch/internal/config"
	"github.com/rugchef/rugwatch/internal/logger"
	"github.com/rugchef/rugwatch/internal/runner"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := "configs/config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		LogFile:     "rugwatch.log",
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("Failed to build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting rug watcher",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Int("poll_interval_s", cfg.PollInterval))

	r, err := runner.New(cfg, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize runner", zap.Error(err))
	}

	if err := r.Run(ctx); err != nil {
		log.Fatal("Watcher execution error", zap.Error(err))
	}
}
