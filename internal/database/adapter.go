package database

import (
	"context"
	"fmt"

	"github.com/Rana718/ddlseed/internal/schema"
)

// DatabaseAdapter is the slice of a live database that apply needs: run a
// generated script and report what landed.
type DatabaseAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// ExecuteStatements runs every statement in one transaction.
	ExecuteStatements(ctx context.Context, statements []string) error

	GetAllTableNames(ctx context.Context) ([]string, error)
	CountRows(ctx context.Context, table string) (int64, error)
}

// ApplyScript splits script into statements and executes them in a single
// transaction. It returns the number of statements run.
func ApplyScript(ctx context.Context, adapter DatabaseAdapter, script string) (int, error) {
	statements := schema.SplitStatements(script)
	if len(statements) == 0 {
		return 0, nil
	}
	if err := adapter.ExecuteStatements(ctx, statements); err != nil {
		return 0, fmt.Errorf("failed to apply script: %w", err)
	}
	return len(statements), nil
}
