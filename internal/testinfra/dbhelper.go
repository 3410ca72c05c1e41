package testinfra

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/bookshelf/internal/db"
	"github.com/vvka-141/bookshelf/internal/db/manager"
)

// ConnEnvVar names a server to test against instead of a container.
const ConnEnvVar = "BOOKSHELF_TEST_CONN"

var (
	containerOnce sync.Once
	containerConn string
	containerErr  error
)

func getOrStartContainer() (string, error) {
	containerOnce.Do(func() {
		container, err := StartPostgres(context.Background())
		if err != nil {
			containerErr = err
			return
		}
		containerConn = container.ConnString
	})
	return containerConn, containerErr
}

// RequireDatabase returns a connection string for a maintenance database.
// It skips the test in -short mode, or when neither BOOKSHELF_TEST_CONN nor
// Docker is available.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if connString := os.Getenv(ConnEnvVar); connString != "" {
		return connString
	}

	connString, err := getOrStartContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", ConnEnvVar, err)
	}
	return connString
}

// CreateTestDB creates a uniquely named database and returns a connection
// string for it. The database is dropped when the test completes.
func CreateTestDB(t *testing.T, connString string) string {
	t.Helper()
	ctx := context.Background()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	dbName := "bookshelf_test_" + uuid.NewString()[:8]

	pool, err := pgxpool.New(ctx, db.BuildConnectionString(db.ManagementConfig(config)))
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	defer pool.Close()

	if _, err := manager.New().EnsureDatabase(ctx, db.NewPoolAdapter(pool), dbName); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		dropTestDB(t, connString, dbName)
	})
	return db.BuildConnectionString(db.WithDatabase(config, dbName))
}

func dropTestDB(t *testing.T, connString, dbName string) {
	t.Helper()
	ctx := context.Background()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		return
	}
	pool, err := pgxpool.New(ctx, db.BuildConnectionString(db.ManagementConfig(config)))
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	query := fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", pgx.Identifier{dbName}.Sanitize())
	if _, err := pool.Exec(ctx, query); err != nil {
		t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
	}
}

// OpenPool returns a pool for connString closed at test end.
func OpenPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
