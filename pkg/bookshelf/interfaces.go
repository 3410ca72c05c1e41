package bookshelf

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector opens a pool to the catalog database. Implementations differ in
// how they authenticate: password, AWS IAM token, Azure Entra ID token or the
// Cloud SQL dialer. The caller closes the pool.
type Connector interface {
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// DBConnection is the part of a pool that DatabaseManager uses.
type DBConnection interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow never returns nil; errors surface from Scan.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Acquire reserves one connection, needed for CREATE DATABASE, which
	// cannot run inside a transaction block. Release it when done.
	Acquire(ctx context.Context) (PooledConnection, error)
}

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// PooledConnection is a connection reserved from a pool.
type PooledConnection interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Release()
}

// DatabaseManager creates the catalog database on first use. Databases are
// never dropped.
type DatabaseManager interface {
	Exists(ctx context.Context, conn DBConnection, dbName string) (bool, error)
	Create(ctx context.Context, conn DBConnection, dbName string) error

	// EnsureDatabase reports true when this call created dbName.
	EnsureDatabase(ctx context.Context, conn DBConnection, dbName string) (bool, error)
}

// ErrorClassifier tells transient failures, worth another attempt, from
// fatal ones.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// BackoffStrategy spaces out retry attempts.
type BackoffStrategy interface {
	// NextDelay returns the wait before retry number attempt, counted from 0.
	NextDelay(attempt int) time.Duration

	// MaxAttempts bounds the retries: 0 disables them, -1 removes the bound.
	MaxAttempts() int
}
