package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"accounting/internal/amqp"
	"accounting/internal/cli"
	apphttp "accounting/internal/http"
	"accounting/internal/ledger"
	applog "accounting/internal/log"
	"accounting/internal/rpc"
	"accounting/internal/services"
	"accounting/internal/stdio"
	"accounting/internal/tools"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	store, err := ledger.Open(cfg.DataDir, logger.WithComponent(applog.ComponentLedger))
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err.Error(), "data_dir", cfg.DataDir)
		os.Exit(1)
	}

	// The event bus is optional: without a broker the server runs
	// standalone and the mirror simply stays stale.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err.Error())
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(store, events, logger.WithComponent(applog.ComponentLedger))

	registry := rpc.NewRegistry()
	tools.Register(registry, svc)
	dispatcher := rpc.NewDispatcher(registry, logger.WithComponent(applog.ComponentRPC))

	logger.Info("Registry built",
		"tools", registry.ToolNames(),
		"resources", registry.ResourceURIs())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.EnableStudio {
		srv := apphttp.NewServer(cfg.Addr(), dispatcher, cfg.APIKey, logger.WithComponent(applog.ComponentHTTP))

		// Configure server timeouts and limits
		srv.ReadTimeout = 10 * time.Second
		srv.WriteTimeout = 10 * time.Second
		srv.IdleTimeout = 60 * time.Second
		srv.MaxHeaderBytes = 1 << 16 // 64KB

		g.Go(func() error {
			logger.Info("Studio transport listening",
				"addr", cfg.Addr(),
				"protocol", cfg.Protocol,
				"auth_enabled", cfg.APIKey != "")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	} else {
		logger.Info("Studio transport disabled by configuration")
	}

	if cfg.EnableStdio {
		runner := stdio.NewRunner(os.Stdin, os.Stdout, dispatcher, logger.WithComponent(applog.ComponentStdio))
		g.Go(func() error {
			// EOF on stdin stops the whole process.
			err := runner.Run(gctx)
			cancel()
			return err
		})
		g.Go(func() error {
			// The scanner blocks in a stdin read; closing the file unblocks
			// it when a shutdown signal arrives first.
			<-gctx.Done()
			os.Stdin.Close()
			return nil
		})
	} else {
		logger.Info("Stdio transport disabled by configuration")
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Server error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
