package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/Hundslouch/reminder-bot/internal/app"
	"github.com/Hundslouch/reminder-bot/internal/config"
	"github.com/Hundslouch/reminder-bot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}

	application, err := app.New(cfg, log)
	if err != nil {
		_ = log.Sync()
		log.Fatal("app init failed", zap.Error(err))
	}

	runErr := application.Run(context.Background())
	_ = log.Sync()
	if runErr != nil {
		os.Exit(1)
	}
}
