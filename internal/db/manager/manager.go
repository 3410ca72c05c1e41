package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// duplicateDatabase is SQLSTATE 42P04.
const duplicateDatabase = "42P04"

// Manager implements bookshelf.DatabaseManager. It holds no state.
type Manager struct{}

// New creates a Manager.
func New() bookshelf.DatabaseManager {
	return &Manager{}
}

// Exists reports whether dbName exists on the server behind conn.
func (m *Manager) Exists(ctx context.Context, conn bookshelf.DBConnection, dbName string) (bool, error) {
	var exists bool
	if err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create runs CREATE DATABASE on a dedicated connection, since the statement
// cannot run inside a transaction block.
func (m *Manager) Create(ctx context.Context, conn bookshelf.DBConnection, dbName string) error {
	pooledConn, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := pooledConn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// EnsureDatabase creates dbName unless it exists. A concurrent creator
// winning the race is not an error.
func (m *Manager) EnsureDatabase(ctx context.Context, conn bookshelf.DBConnection, dbName string) (bool, error) {
	exists, err := m.Exists(ctx, conn, dbName)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := m.Create(ctx, conn, dbName); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == duplicateDatabase {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ bookshelf.DatabaseManager = (*Manager)(nil)
