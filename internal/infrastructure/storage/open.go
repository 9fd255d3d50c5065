package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const sqlitePragmas = "_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Open connects to the configured database, applies the schema and returns a
// repository. SQLite gets a single-connection writer and a pooled reader,
// except for in-memory databases which live on one shared connection.
func Open(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return openSQLite(ctx, dsn)
	case DriverPostgres, "pg", "postgresql":
		return openPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQLite(ctx context.Context, path string) (*SQLRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	memory := isMemoryDSN(path)
	if !memory && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	dsn := sqliteDSN(path)

	writeDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	// Every connection to an in-memory database sees its own empty database,
	// so reads and writes share the one connection.
	var readDB *sql.DB
	if memory {
		writeDB.SetMaxIdleConns(1)
		writeDB.SetConnMaxLifetime(0)
		writeDB.SetConnMaxIdleTime(0)
	} else {
		readDB, err = sql.Open("sqlite", dsn)
		if err != nil {
			_ = writeDB.Close()
			return nil, fmt.Errorf("open read db: %w", err)
		}
	}

	repo := NewSQLRepository(writeDB, readDB, sq.Question)
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

func openPostgres(ctx context.Context, dsn string) (*SQLRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo := NewSQLRepository(db, db, sq.Dollar)
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

func sqliteDSN(path string) string {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas
}

func isMemoryDSN(path string) bool {
	path = strings.TrimPrefix(strings.TrimSpace(path), "file:")
	if strings.HasPrefix(path, ":memory:") || path == "" || strings.HasPrefix(path, "?") {
		return true
	}
	return strings.Contains(path, "mode=memory")
}
