package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vvka-141/bookshelf/internal/config"
	"github.com/vvka-141/bookshelf/internal/db"
	"github.com/vvka-141/bookshelf/internal/db/manager"
	"github.com/vvka-141/bookshelf/internal/fetch"
	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/internal/logging"
	"github.com/vvka-141/bookshelf/internal/metrics"
	"github.com/vvka-141/bookshelf/internal/services"
	"github.com/vvka-141/bookshelf/internal/store/postgres"
	"github.com/vvka-141/bookshelf/internal/validation"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
)

// app holds the dependencies shared by every command.
type app struct {
	settings *config.Settings
	logger   *zap.Logger
	fs       filesystem.FileSystemProvider
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// loadSettings merges the settings file, the environment, positional
// keywords and the overrides of one command, then validates the result.
func loadSettings(keywords []string, override func(*config.Settings)) (*config.Settings, error) {
	settings, err := config.Load(globalFlags.configPath)
	if err != nil {
		return nil, err
	}
	if len(keywords) > 0 {
		settings.Keywords = keywords
	}
	if override != nil {
		override(settings)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func newApp(settings *config.Settings) (*app, error) {
	logger, err := logging.New(globalFlags.verbose, globalFlags.logFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bookshelf.ErrInvalidConfig, err)
	}
	registry := prometheus.NewRegistry()
	return &app{
		settings: settings,
		logger:   logger,
		fs:       filesystem.NewOSFileSystem(),
		registry: registry,
		metrics:  metrics.New(registry),
	}, nil
}

func (a *app) fetchClient() *fetch.Client {
	f := a.settings.Fetch
	return fetch.NewClient(a.fs, a.logger, fetch.Options{
		BaseURL:           f.BaseURL,
		APIKey:            f.APIKey,
		RawDir:            a.settings.RawDir,
		EndIndex:          f.EndIndex,
		MaxResults:        f.MaxResults,
		RequestsPerMinute: f.RequestsPerMinute,
	}, fetch.WithMetrics(a.metrics))
}

func (a *app) validationService() *services.ValidationService {
	return services.NewValidationService(a.fs, a.logger, a.metrics, validation.Options{
		RawDir:       a.settings.RawDir,
		ValidatedDir: a.settings.ValidatedDir,
		MinPercent:   a.settings.MinPercent,
	})
}

// openCatalog connects to the configured catalog database, creating it and
// its tables when missing. The returned function closes the pool.
func (a *app) openCatalog(ctx context.Context) (*postgres.Store, func(), error) {
	if err := a.settings.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	c := a.settings.Connection
	connConfig, err := db.ResolveConnection(c.URL, db.Auth{
		Method:            c.AuthMethod,
		AWSRegion:         c.AWSRegion,
		GoogleInstance:    c.GoogleInstance,
		AzureTenantID:     c.AzureTenantID,
		AzureClientID:     c.AzureClientID,
		AzureClientSecret: c.AzureClientSecret,
	})
	if err != nil {
		return nil, nil, err
	}

	a.logger.Debug("connection resolved",
		zap.String("host", connConfig.Host),
		zap.Int("port", connConfig.Port),
		zap.String("database", connConfig.Database),
		zap.String("auth_method", connConfig.AuthMethod.String()),
	)
	opener := services.NewCatalogOpener(db.NewConnector, manager.New(), a.logger)
	return opener.Open(ctx, connConfig)
}

// commandContext bounds a command by timeout and cancels it on SIGINT or
// SIGTERM.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
