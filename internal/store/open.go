package store

import (
	"context"
	"fmt"
)

// Open returns the repository for driver ("sqlite" or "postgres").
// For sqlite dsn is a file path, for postgres a connection URL.
func Open(ctx context.Context, driver, dsn string) (Repo, error) {
	switch driver {
	case DialectSQLite:
		return OpenSQLite(ctx, dsn)
	case DialectPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
}
