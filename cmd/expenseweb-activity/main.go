// Command expenseweb-activity consumes form activity events from AMQP and
// writes them to the activity journal the web server reads.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expenseweb/internal/amqp"
	"expenseweb/internal/cli"
	"expenseweb/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentJournal)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" || cfg.JournalDBPath == "" {
		logger.Error("AMQP_URL and JOURNAL_DB_PATH are both required")
		os.Exit(1)
	}

	journal := cli.OpenJournal(logger, cfg.JournalDBPath)
	defer journal.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) { cancel() })

	logger.Info("Starting activity worker", "queue", cfg.AMQPQueue, "journal", cfg.JournalDBPath)
	err = client.ConsumeActivity(ctx, func(ctx context.Context, msg *amqp.ActivityMessage) error {
		return journal.Record(ctx, msg.Activity)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Activity worker stopped")
}
