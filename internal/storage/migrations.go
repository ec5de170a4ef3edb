package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Documents table; embedding holds the whole-document vector
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    scope TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    source_link TEXT,
    keywords TEXT NOT NULL DEFAULT '[]',
    content_hash BLOB NOT NULL,
    embedding BLOB,
    dimension INTEGER,
    provider TEXT,
    model TEXT,
    indexed_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(scope);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);

-- Chunks table
CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    content_hash BLOB NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    token_count INTEGER,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
    UNIQUE(document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);

-- Embeddings table
CREATE TABLE IF NOT EXISTS embeddings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chunk_id INTEGER NOT NULL UNIQUE,
    vector BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (chunk_id) REFERENCES chunks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_embeddings_provider ON embeddings(provider, model);

-- Search result cache; expires_at is unix milliseconds
CREATE TABLE IF NOT EXISTS search_cache (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_cache_expires ON search_cache(expires_at);
`

const migrationV1Down = `
DROP TABLE IF EXISTS search_cache;
DROP TABLE IF EXISTS embeddings;
DROP TABLE IF EXISTS chunks;
DROP TABLE IF EXISTS documents;
DROP TABLE IF EXISTS schema_version;
`

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	var currentVersion *semver.Version
	if err == sql.ErrNoRows {
		currentVersion = semver.MustParse("0.0.0")
	} else if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	} else {
		var currentVersionStr string
		currentVersionStr, err = readSchemaVersion(ctx, db)
		if err == sql.ErrNoRows || currentVersionStr == "" {
			currentVersion = semver.MustParse("0.0.0")
		} else if err != nil {
			return fmt.Errorf("failed to read schema_version: %w", err)
		} else {
			currentVersion, err = semver.NewVersion(currentVersionStr)
			if err != nil {
				return fmt.Errorf("invalid current schema version %s: %w", currentVersionStr, err)
			}
		}
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !currentVersion.LessThan(migrationVersion) {
			continue
		}

		_, err = db.ExecContext(ctx, migration.Up)
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		_, err = db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		currentVersion = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	currentVersion, err := readSchemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == currentVersion {
			migration = &AllMigrations[i]
			break
		}
	}

	if migration == nil {
		return fmt.Errorf("migration %s not found", currentVersion)
	}

	// Remove the record first; the down migration may drop schema_version itself
	_, err = db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", currentVersion)
	if err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", currentVersion, err)
	}

	_, err = db.ExecContext(ctx, migration.Down)
	if err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", currentVersion, err)
	}

	return nil
}

// readSchemaVersion returns the highest applied schema version
func readSchemaVersion(ctx context.Context, q querier) (string, error) {
	rows, err := q.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	var latest *semver.Version
	var latestStr string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return "", err
		}
		parsed, err := semver.NewVersion(v)
		if err != nil {
			return "", fmt.Errorf("invalid schema version %s: %w", v, err)
		}
		if latest == nil || parsed.GreaterThan(latest) {
			latest, latestStr = parsed, v
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if latest == nil {
		return "", sql.ErrNoRows
	}
	return latestStr, nil
}
