// Package app wires configuration, clients, storage and services into the
// shared core used by cmd/sift-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amarcoder01/sift/internal/clients/polygon"
	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/services/screener"
	"github.com/amarcoder01/sift/internal/storage/badger"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Client      interfaces.MarketDataClient
	Screener    *screener.Service
	StartupTime time.Time

	store *badger.Store
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, the vendor client, storage and the
// screening service. configPath may be empty, in which case SIFT_CONFIG
// and then the binary directory are consulted.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("SIFT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "sift.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/sift.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	// No credential means every upstream call would fail; refuse to start.
	apiKey, err := common.ResolveAPIKey(config)
	if err != nil {
		return nil, err
	}

	client := polygon.NewClient(apiKey,
		polygon.WithBaseURL(config.Clients.Polygon.BaseURL),
		polygon.WithLogger(logger),
		polygon.WithRateLimit(config.Clients.Polygon.RateLimit),
		polygon.WithTimeout(config.Clients.Polygon.GetTimeout()),
	)

	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	snapshotStore := badger.NewSnapshotStorage(store, logger)

	cache := screener.NewMemoryCache()
	builder := screener.NewSnapshotBuilder(client, cache, snapshotStore, logger, config.Screener)

	resolver := screener.NewMarketCapResolver(client, logger, config.Screener.DefaultSector)
	fetcher := screener.NewQuoteFetcher(client, resolver, logger)
	orchestrator := screener.NewBatchOrchestrator(fetcher, logger)
	engine := screener.NewFilterEngine(orchestrator, logger, config.Screener)

	searchIndex, err := screener.NewSearchIndex(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search index: %w", err)
	}

	service := screener.NewService(client, builder, engine, fetcher, searchIndex, logger)

	return &App{
		Config:      config,
		Logger:      logger,
		Client:      client,
		Screener:    service,
		StartupTime: time.Now(),
		store:       store,
	}, nil
}

// Close releases the screening service and storage.
func (a *App) Close() {
	if a.Screener != nil {
		if err := a.Screener.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close screener service")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
