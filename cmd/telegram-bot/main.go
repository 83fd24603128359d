package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/docqa-backend/internal/builder"
	"go.uber.org/zap"
)

func main() {
	bot, core, err := builder.BuildTelegramBot()
	if err != nil {
		log.Fatal("Failed to build telegram bot:", err)
	}
	defer core.Close()
	logger := core.Logger

	// handlers run on runCtx so that Stop can let in-flight answers finish
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting telegram bot")
	if err := bot.Start(runCtx); err != nil {
		logger.Error("telegram bot error", zap.Error(err))
		return
	}

	<-sigCtx.Done()
	logger.Info("shutdown signal received, stopping telegram bot")
	if err := bot.Stop(); err != nil {
		logger.Error("error stopping bot", zap.Error(err))
	}
	logger.Info("telegram bot stopped")
}
