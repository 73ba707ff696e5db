package zombiezen

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"runtime"

	"zombiezen.com/go/sqlite/sqlitex"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// NewPool opens a WAL mode connection pool on the database at dbPath,
// creating the file if needed, and applies the embedded schema.
func NewPool(dbPath string) (*sqlitex.Pool, error) {
	pool, err := sqlitex.NewPool("file:"+dbPath, sqlitex.PoolOptions{
		PoolSize: runtime.NumCPU(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	if err := applySchema(context.Background(), pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// applySchema runs every embedded script, in name order. Scripts must be
// idempotent.
func applySchema(ctx context.Context, pool *sqlitex.Pool) error {
	names, err := fs.Glob(sqlFiles, "sql/*.sql")
	if err != nil {
		return err
	}

	conn, err := pool.Take(ctx)
	if err != nil {
		return err
	}
	defer pool.Put(conn)

	for _, name := range names {
		script, err := sqlFiles.ReadFile(name)
		if err != nil {
			return err
		}
		if err := sqlitex.ExecuteScript(conn, string(script), nil); err != nil {
			return fmt.Errorf("schema %s: %w", name, err)
		}
	}
	return nil
}
