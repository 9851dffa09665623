package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"shopdesk/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx connection pool for connStr and verifies it with a ping.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// migrationLockID is the advisory lock key that serializes concurrent migrators.
const migrationLockID = 7462839

type migrationFile struct {
	version  string
	name     string
	sql      string
	checksum string
}

// Migrate applies every embedded migration file not yet recorded in schema_migrations,
// in lexical order, each in its own transaction. A file whose checksum differs from the
// recorded one is an error. It returns the names of the files applied by this call.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	files, err := discoverMigrations()
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for migration lock: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return nil, fmt.Errorf("failed to take migration lock: %w", err)
	}
	defer conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrationLockID)

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			checksum   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	for _, f := range files {
		done, err := applyMigration(ctx, conn.Conn(), f)
		if err != nil {
			return applied, err
		}
		if done {
			applied = append(applied, f.name)
		}
	}
	return applied, nil
}

// discoverMigrations reads the embedded NNN_description.sql files, rejecting
// malformed names and duplicate versions.
func discoverMigrations() ([]migrationFile, error) {
	names, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	seen := make(map[string]bool, len(names))
	files := make([]migrationFile, 0, len(names))
	for _, name := range names {
		version, _, ok := strings.Cut(name, "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("invalid migration filename %s, expected NNN_description.sql", name)
		}
		if seen[version] {
			return nil, fmt.Errorf("duplicate migration version %s", version)
		}
		seen[version] = true

		body, err := fs.ReadFile(migrations.Files, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		sum := sha256.Sum256(body)
		files = append(files, migrationFile{
			version:  version,
			name:     name,
			sql:      string(body),
			checksum: hex.EncodeToString(sum[:]),
		})
	}
	return files, nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, f migrationFile) (bool, error) {
	var existing string
	err := conn.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", f.version).Scan(&existing)
	switch {
	case err == nil:
		if existing != f.checksum {
			return false, fmt.Errorf("checksum mismatch for %s: recorded %s, file %s", f.name, existing, f.checksum)
		}
		return false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return false, fmt.Errorf("failed to query schema_migrations for %s: %w", f.name, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for %s: %w", f.name, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, f.sql); err != nil {
		return false, fmt.Errorf("migration %s failed: %w", f.name, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		f.version, f.name, f.checksum,
	); err != nil {
		return false, fmt.Errorf("failed to record migration %s: %w", f.name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit migration %s: %w", f.name, err)
	}
	return true, nil
}
