// Package db provides database initialization and access for the SQLite and Postgres backends.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/mattn/go-sqlite3"
)

// DB is a connection pool paired with the SQL dialect of its driver.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DefaultPath returns the default SQLite database path: ~/.sfa/sfa.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sfa", "sfa.db"), nil
}

// Open opens a database for the given driver ("sqlite3" or "pgx") and runs migrations.
// For sqlite3 the dsn is a file path; the parent directory is created and WAL mode
// and foreign keys are enabled.
func Open(driver, dsn string) (*DB, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	sqlDB, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	d := &DB{DB: sqlDB, Dialect: dialect}

	if err := d.configure(); err != nil {
		return nil, closeOnErr(d, err)
	}

	if err := migrate(d); err != nil {
		return nil, closeOnErr(d, fmt.Errorf("running migrations: %w", err))
	}

	return d, nil
}

// OpenSQLite opens (or creates) a SQLite database at path.
func OpenSQLite(path string) (*DB, error) {
	return Open(string(SQLite), path)
}

// configure applies per-driver connection settings.
func (d *DB) configure() error {
	if d.Dialect != SQLite {
		if err := d.PingContext(context.Background()); err != nil {
			return fmt.Errorf("pinging database: %w", err)
		}
		return nil
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if _, err := d.Exec(p); err != nil {
			return fmt.Errorf("executing %s: %w", p, err)
		}
	}

	// Pragmas are per connection; a single connection keeps them in effect
	// and matches SQLite's single-writer model.
	d.SetMaxOpenConns(1)

	return nil
}

// Rebind rewrites a query written with ? placeholders for this database's dialect.
func (d *DB) Rebind(query string) string {
	return d.Dialect.Rebind(query)
}

func closeOnErr(d *DB, err error) error {
	if closeErr := d.Close(); closeErr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
	}
	return err
}
