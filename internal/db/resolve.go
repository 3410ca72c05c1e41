package db

import (
	"fmt"

	"github.com/vvka-141/bookshelf/pkg/bookshelf"
)

// Auth carries the cloud authentication settings that cannot be expressed
// in a connection string.
type Auth struct {
	Method            string
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// ResolveConnection parses connStr and applies auth. The database named in
// connStr is the catalog database; it does not have to exist yet.
func ResolveConnection(connStr string, auth Auth) (*bookshelf.ConnectionConfig, error) {
	config, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, err
	}

	method, err := bookshelf.ParseAuthMethod(auth.Method)
	if err != nil {
		return nil, err
	}
	config.AuthMethod = method
	config.AWSRegion = auth.AWSRegion
	config.GoogleInstance = auth.GoogleInstance
	config.AzureTenantID = auth.AzureTenantID
	config.AzureClientID = auth.AzureClientID
	config.AzureClientSecret = auth.AzureClientSecret

	if config.Database == "" {
		return nil, fmt.Errorf("connection string names no database: %w", bookshelf.ErrInvalidConfig)
	}
	return config, nil
}

// ManagementConfig returns the configuration used to create the catalog
// database: the same server, connected to the maintenance database.
func ManagementConfig(config *bookshelf.ConnectionConfig) *bookshelf.ConnectionConfig {
	return WithDatabase(config, bookshelf.DefaultManagementDB)
}
