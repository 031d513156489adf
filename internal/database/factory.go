package database

import (
	"context"
	"fmt"

	"github.com/Rana718/ddlseed/internal/database/mysql"
	"github.com/Rana718/ddlseed/internal/database/postgres"
	"github.com/Rana718/ddlseed/internal/database/sqlite"
)

func NewAdapter(provider string) (DatabaseAdapter, error) {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New(), nil
	case "mysql":
		return mysql.New(), nil
	case "sqlite", "sqlite3":
		return sqlite.New(), nil
	}
	return nil, fmt.Errorf("unsupported database provider: %s", provider)
}

// Open connects an adapter for provider and checks the connection.
func Open(ctx context.Context, provider, url string) (DatabaseAdapter, error) {
	adapter, err := NewAdapter(provider)
	if err != nil {
		return nil, err
	}
	if err := adapter.Connect(ctx, url); err != nil {
		return nil, err
	}
	if err := adapter.Ping(ctx); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return adapter, nil
}
