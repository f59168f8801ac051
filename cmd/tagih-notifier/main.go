package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tagih/internal/amqp"
	"tagih/internal/cli"
	"tagih/internal/config"
	"tagih/internal/log"
	"tagih/internal/storage"
	"tagih/internal/telegram"
	"tagih/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting tagih-notifier")
	cli.LoadAndValidateConfig(logger, cfg, (*config.Config).ValidateNotifierProcess)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reads the same ledger file the reminder process writes
	handle := cli.OpenLedger(ctx, logger, cfg.SQLiteDBPath)
	defer handle.Close()

	repo := storage.NewDebtRepository(handle)

	tg, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	notificationWorker := worker.NewNotificationWorker(repo, tg, cfg.Location(), logger)
	if cfg.TelegramSendLink {
		notificationWorker.WithContactLink(tg)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := amqpClient.ConsumeReminders(ctx, notificationWorker.HandleReminder); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
			cancel()
		}
	}()

	cli.WaitForSignal(ctx, logger)

	logger.Info("Shutting down tagih-notifier...")
	cancel()
	cli.AwaitShutdown(logger, done, 30*time.Second)
}
