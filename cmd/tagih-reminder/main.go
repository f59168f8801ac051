package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"tagih/internal/amqp"
	"tagih/internal/cli"
	"tagih/internal/config"
	"tagih/internal/log"
	"tagih/internal/services"
	"tagih/internal/storage"
	"tagih/internal/telegram"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting tagih-reminder")
	cli.LoadAndValidateConfig(logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle := cli.OpenLedger(ctx, logger, cfg.SQLiteDBPath)
	defer handle.Close()

	repo := storage.NewDebtRepository(handle, storage.WithUpcomingWindow(cfg.UpcomingWindow))

	notifier, closeNotifier := buildNotifier(cfg, logger)
	defer closeNotifier()

	sweeper := services.NewReminderSweeper(repo, notifier, services.SweepConfig{
		Cooldown: cfg.ReminderCooldown,
		Location: cfg.Location(),
		Now:      time.Now,
	}, logger)

	runSweep := func() {
		start := time.Now()
		report, err := sweeper.Run(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Reminder sweep failed",
				log.FieldError, err,
				log.FieldNotified, report.Notified)
		}
		if !report.Completed {
			return
		}

		digest, err := services.BuildDigest(ctx, repo, time.Now(), cfg.UrgentWindow)
		if err != nil {
			logger.WarnContext(ctx, "Failed to build ledger digest", log.FieldError, err)
			return
		}
		logger.InfoContext(ctx, "Ledger digest",
			"outstanding", digest.Totals.Outstanding,
			"overdue_amount", digest.Totals.Overdue,
			"overdue", digest.Overdue,
			"urgent", digest.Urgent,
			"scheduled", digest.Scheduled,
			"buckets", digest.BucketSizes(),
			log.FieldDuration, time.Since(start).Milliseconds())
	}

	scheduler := cron.New(
		cron.WithParser(config.ScheduleParser),
		cron.WithLocation(cfg.Location()),
	)
	if _, err := scheduler.AddFunc(cfg.SweepSchedule, runSweep); err != nil {
		logger.Error("Invalid sweep schedule", log.FieldError, err, log.FieldSchedule, cfg.SweepSchedule)
		os.Exit(1)
	}

	logger.Info("Reminder sweep configured",
		log.FieldSchedule, cfg.SweepSchedule,
		log.FieldCooldown, cfg.ReminderCooldown.String(),
		log.FieldNotifier, cfg.Notifier,
		"sqlite_db", cfg.SQLiteDBPath)

	// Run once on startup, then on schedule
	runSweep()
	scheduler.Start()

	cli.WaitForSignal(ctx, logger)

	logger.Info("Shutting down tagih-reminder...")
	cancel()

	// Wait for a running sweep to finish, bounded
	cli.AwaitShutdown(logger, scheduler.Stop().Done(), 30*time.Second)
}

// buildNotifier picks the notification backend. A backend that fails to
// start is logged and replaced by services.Unavailable, so sweeps report
// false instead of the process exiting.
func buildNotifier(cfg *config.Config, logger *log.Logger) (services.Notifier, func()) {
	switch cfg.Notifier {
	case config.NotifierAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reminders disabled", log.FieldError, err)
			return services.Unavailable{}, func() {}
		}
		logger.Info("AMQP notifier initialized - reminders will be delivered by tagih-notifier")
		return amqp.NewNotifier(client), func() { client.Close() }

	case config.NotifierTelegram:
		tg, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Warn("Failed to initialize Telegram bot, reminders disabled", log.FieldError, err)
			return services.Unavailable{}, func() {}
		}
		logger.Info("Telegram notifier initialized")
		return tg, func() {}

	default:
		logger.Info("No notifier configured - reminder sweeps will be skipped")
		return services.Unavailable{}, func() {}
	}
}
