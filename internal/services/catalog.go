package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/bookshelf/internal/db"
	"github.com/vvka-141/bookshelf/internal/store/postgres"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
)

// ConnectorFactory returns a connector for a connection config.
type ConnectorFactory func(*bookshelf.ConnectionConfig, *zap.Logger) (bookshelf.Connector, error)

// CatalogOpener connects to the catalog database, creating the database
// and its tables on first use.
type CatalogOpener struct {
	connectorFactory ConnectorFactory
	dbManager        bookshelf.DatabaseManager
	logger           *zap.Logger
}

// NewCatalogOpener creates a CatalogOpener. Panics on nil dependencies.
func NewCatalogOpener(connectorFactory ConnectorFactory, dbManager bookshelf.DatabaseManager, logger *zap.Logger) *CatalogOpener {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogOpener{connectorFactory: connectorFactory, dbManager: dbManager, logger: logger}
}

// Open returns a store for config.Database and a function closing its pool.
func (o *CatalogOpener) Open(ctx context.Context, config *bookshelf.ConnectionConfig) (*postgres.Store, func(), error) {
	if config.AppName == "" {
		config.AppName = "bookshelf"
	}
	if err := o.ensureDatabase(ctx, config); err != nil {
		return nil, nil, err
	}

	connector, err := o.connectorFactory(config, o.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	st := postgres.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return st, pool.Close, nil
}

func (o *CatalogOpener) ensureDatabase(ctx context.Context, config *bookshelf.ConnectionConfig) error {
	if config.Database == bookshelf.DefaultManagementDB {
		return nil
	}

	connector, err := o.connectorFactory(db.ManagementConfig(config), o.logger)
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to management database: %w", err)
	}
	defer pool.Close()

	created, err := o.dbManager.EnsureDatabase(ctx, db.NewPoolAdapter(pool), config.Database)
	if err != nil {
		return err
	}
	if created {
		o.logger.Info("created catalog database", zap.String("database", config.Database))
	}
	return nil
}
