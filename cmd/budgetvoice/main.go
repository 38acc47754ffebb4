package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"budgetvoice/internal/amqp"
	"budgetvoice/internal/assistant"
	"budgetvoice/internal/cli"
	"budgetvoice/internal/config"
	"budgetvoice/internal/dialogue"
	apphttp "budgetvoice/internal/http"
	"budgetvoice/internal/ledger"
	"budgetvoice/internal/log"
	"budgetvoice/internal/narration"
	"budgetvoice/internal/reminder"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.ShutdownContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	var opts []ledger.Option
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// events are best-effort; the ledger works without them
			logger.Warn("AMQP unavailable, ledger events will not be exported", log.FieldError, err)
		} else {
			defer client.Close()
			opts = append(opts, ledger.WithPublisher(client))
			logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	l, err := cli.OpenLedger(ctx, cfg, logger, opts...)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()
	if w := l.Warning(); w != nil {
		logger.Warn("Ledger running degraded", log.FieldError, w)
	}

	hub := narration.NewHub(32)
	sink := narration.Multi{narration.NewLogSink(logger), hub}

	controller := dialogue.NewController(l, sink,
		dialogue.WithFollowUpTimeout(cfg.FollowUpTimeout),
		dialogue.WithLogger(logger))

	var conv *assistant.Conversation
	backend, err := cli.NewAssistant(ctx, cfg)
	if err != nil {
		return fmt.Errorf("assistant: %w", err)
	}
	if backend != nil {
		conv = assistant.NewConversation(backend, sink, cfg.AssistantStyle, logger)
		logger.Info("Assistant enabled", "backend", cfg.AssistantBackend, "style", cfg.AssistantStyle)
	}

	reminders := reminder.NewProcessor(l, sink, reminder.CheckerFor(cfg.ReminderLead), logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:       l,
		Controller:   controller,
		Hub:          hub,
		Sink:         sink,
		Conversation: conv,
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budgetvoice server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"budget", l.Budget().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return reminders.Run(gctx, cfg.ReminderInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
