package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"accounting/internal/amqp"
	"accounting/internal/cli"
	"accounting/internal/ledger/mirror"
	applog "accounting/internal/log"
	"accounting/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting accounting-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}

	repo, err := mirror.NewRepository(cfg.MirrorDBPath)
	if err != nil {
		logger.Error("Failed to initialize mirror repository",
			applog.FieldError, err.Error(), "path", cfg.MirrorDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.NewMirrorWorker(repo, logger.WithComponent(applog.ComponentWorker))

	if err := amqpClient.ConsumeEvents(ctx, w.HandleRecorded, w.HandleDeleted); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
