package backend

import (
	"context"
	"fmt"

	"budgetvoice/internal/config"
	"budgetvoice/internal/log"
	"budgetvoice/internal/storage"
	"budgetvoice/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:          backendType,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// CreateStore opens the configured store. A SQLite store that cannot be
// opened degrades to memory; the failure is returned as Result.Warning.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(ctx, config), nil
	case MemoryBackend:
		return f.createMemoryStore(ctx, config, nil), nil
	default:
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) *Result {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		warning := fmt.Errorf("open sqlite store %s: %w", config.SQLiteDBPath, err)
		f.logger.WarnContext(ctx, "SQLite unavailable, falling back to memory store",
			"db_path", config.SQLiteDBPath,
			log.FieldError, err)
		return f.createMemoryStore(ctx, config, warning)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{Store: repo, Type: SQLiteBackend}
}

func (f *DefaultFactory) createMemoryStore(ctx context.Context, config Config, warning error) *Result {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store := memory.NewFromFiles(dataDir)

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)
	return &Result{Store: store, Type: MemoryBackend, Warning: warning}
}
