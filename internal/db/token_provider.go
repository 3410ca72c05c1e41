package db

import (
	"context"
	"time"
)

// TokenProvider issues short-lived passwords for cloud-hosted PostgreSQL.
type TokenProvider interface {
	// GetToken returns a token and the time it expires.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider without secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// tokenExpiryWarning is how close to expiry a fresh token must be before a
// warning is logged.
const tokenExpiryWarning = 5 * time.Minute
