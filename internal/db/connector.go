package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/bookshelf/internal/retry"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
)

// Pool limits. The loader holds one transaction at a time, so a small pool
// is enough.
const (
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger *zap.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Debug("postgres notice", zap.String("severity", notice.Severity), zap.String("message", notice.Message))
	}
}

// newRetryExecutor returns the executor shared by the password and token
// connectors: PostgreSQL classification with the package defaults.
func newRetryExecutor(logger *zap.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(bookshelf.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(bookshelf.DefaultRetryInitialDelay),
		retry.WithMaxDelay(bookshelf.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("retrying database connection",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		})
}

// openPool creates a pool for connStr and pings it.
func openPool(ctx context.Context, connStr string, config *bookshelf.ConnectionConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	configurePool(poolConfig, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config)
	}
	return pool, nil
}

// StandardConnector connects with a username and password, retrying
// transient failures.
type StandardConnector struct {
	config        *bookshelf.ConnectionConfig
	logger        *zap.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a StandardConnector.
func NewStandardConnector(config *bookshelf.ConnectionConfig, logger *zap.Logger) *StandardConnector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect opens a pool to the configured database.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, connStr, c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector returns the Connector matching config.AuthMethod.
func NewConnector(config *bookshelf.ConnectionConfig, logger *zap.Logger) (bookshelf.Connector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.AuthMethod {
	case bookshelf.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case bookshelf.AuthMethodAWSIAM:
		provider, err := NewAWSIAMTokenProvider(fmt.Sprintf("%s:%d", config.Host, config.Port), config.AWSRegion, config.Username)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", bookshelf.ErrInvalidConfig, err)
		}
		return NewTokenBasedConnector(config, provider, logger), nil
	case bookshelf.AuthMethodGoogleIAM:
		if config.GoogleInstance == "" || config.Username == "" {
			return nil, fmt.Errorf("google cloud sql iam auth needs connection.google_instance and a username: %w", bookshelf.ErrInvalidConfig)
		}
		return NewGoogleCloudSQLConnector(config, logger), nil
	case bookshelf.AuthMethodAzureEntraID:
		provider, err := NewAzureTokenProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, logger), nil
	default:
		return nil, fmt.Errorf("auth method %v: %w", config.AuthMethod, bookshelf.ErrUnsupportedAuthMethod)
	}
}

// connectionHints map fragments of driver errors to a short explanation.
var connectionHints = []struct {
	fragments []string
	hint      func(c *bookshelf.ConnectionConfig) string
}{
	{[]string{"connection refused", "actively refused"}, func(c *bookshelf.ConnectionConfig) string {
		return fmt.Sprintf("connection refused by %s:%d, is PostgreSQL running?", c.Host, c.Port)
	}},
	{[]string{"no such host", "no host"}, func(c *bookshelf.ConnectionConfig) string {
		return fmt.Sprintf("cannot resolve host %q", c.Host)
	}},
	{[]string{"password authentication failed"}, func(c *bookshelf.ConnectionConfig) string {
		return fmt.Sprintf("password authentication failed for user %q, check DB_URL", c.Username)
	}},
	{[]string{"does not exist"}, func(c *bookshelf.ConnectionConfig) string {
		return fmt.Sprintf("database %q does not exist, run bookshelf load to create it", c.Database)
	}},
	{[]string{"timeout", "timed out"}, func(c *bookshelf.ConnectionConfig) string {
		return fmt.Sprintf("connection to %s:%d timed out", c.Host, c.Port)
	}},
	{[]string{"ssl", "tls"}, func(c *bookshelf.ConnectionConfig) string {
		return fmt.Sprintf("TLS handshake failed with sslmode=%s", c.SSLMode)
	}},
	{[]string{"too many connections"}, func(c *bookshelf.ConnectionConfig) string {
		return fmt.Sprintf("too many connections to database %q", c.Database)
	}},
}

// wrapConnectionError adds a hint to a driver error and marks it with
// ErrConnectionFailed. The driver error stays in the chain for the retry
// classifier.
func wrapConnectionError(err error, config *bookshelf.ConnectionConfig) error {
	msg := strings.ToLower(err.Error())
	for _, h := range connectionHints {
		for _, fragment := range h.fragments {
			if strings.Contains(msg, fragment) {
				return fmt.Errorf("%w: %s: %w", bookshelf.ErrConnectionFailed, h.hint(config), err)
			}
		}
	}
	return fmt.Errorf("%w: failed to connect to database: %w", bookshelf.ErrConnectionFailed, err)
}
