package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/bookshelf/internal/retry"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
)

// TokenBasedConnector connects with a token from a TokenProvider as the
// password. A new token is requested on every attempt.
type TokenBasedConnector struct {
	config        *bookshelf.ConnectionConfig
	tokenProvider TokenProvider
	logger        *zap.Logger
	retryExecutor *retry.Executor
}

// NewTokenBasedConnector creates a TokenBasedConnector.
func NewTokenBasedConnector(config *bookshelf.ConnectionConfig, tokenProvider TokenProvider, logger *zap.Logger) *TokenBasedConnector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect opens a pool authenticated with a fresh token.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("%w: failed to acquire token from %s: %w", bookshelf.ErrConnectionFailed, c.tokenProvider, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Warn("database token expires soon",
				zap.Stringer("provider", c.tokenProvider),
				zap.Duration("remaining", remaining.Round(time.Second)),
			)
		}

		withToken := *c.config
		withToken.Password = token
		pool, err = openPool(ctx, BuildConnectionString(&withToken), c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
