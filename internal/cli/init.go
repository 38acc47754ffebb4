// Package cli provides common initialization shared by cmd/budgetvoice,
// cmd/budgetctl and cmd/export-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"budgetvoice/internal/assistant"
	"budgetvoice/internal/assistant/llm"
	"budgetvoice/internal/assistant/remote"
	"budgetvoice/internal/backend"
	"budgetvoice/internal/config"
	"budgetvoice/internal/ledger"
	"budgetvoice/internal/log"

	"github.com/joho/godotenv"
)

// SetupLogger builds the text logger at level and installs it as the slog
// default. An unknown level falls back to info; Validate reports it.
func SetupLogger(level string) *log.Logger {
	lvl, _ := log.ParseLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentApp})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenLedger opens the configured store and loads the ledger from it. A
// store fallback is carried into Ledger.Warning.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...ledger.Option) (*ledger.Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateStore(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	base := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithDefaultBase(cfg.Base()),
	}
	if res.Warning != nil {
		base = append(base, ledger.WithStartupWarning(res.Warning))
	}
	return ledger.Open(ctx, res.Store, append(base, opts...)...), nil
}

// NewAssistant returns the configured assistant backend, or nil when the
// assistant is disabled.
func NewAssistant(ctx context.Context, cfg *config.Config) (assistant.Assistant, error) {
	switch cfg.AssistantBackend {
	case "remote":
		return remote.New(cfg.AssistantURL, cfg.AssistantTimeout), nil
	case "ark":
		chatModel, err := llm.NewArkChatModel(ctx, llm.ArkConfig{
			APIKey:  cfg.ArkAPIKey,
			Model:   cfg.ArkModel,
			BaseURL: cfg.ArkBaseURL,
			Region:  cfg.ArkRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("ark chat model: %w", err)
		}
		svc, err := llm.New(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "", "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown assistant backend %q", cfg.AssistantBackend)
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
