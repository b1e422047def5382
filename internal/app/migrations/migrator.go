package migrations

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/store"
)

//go:embed sql/*.sql
var migrationFS embed.FS

// Migrator manages schema migrations over the shared store connection
type Migrator struct {
	conn store.Conn
	log  zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(conn store.Conn, lgr zerolog.Logger) *Migrator {
	return &Migrator{conn: conn, log: lgr}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	_, err := m.conn.Exec(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1);`
	err := m.conn.QueryRow(ctx, query, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// recordMigration marks a migration as applied
func (m *Migrator) recordMigration(ctx context.Context, version string) error {
	_, err := m.conn.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
		version, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// applyFile executes one embedded migration file unless already applied
func (m *Migrator) applyFile(ctx context.Context, name string) error {
	version := strings.Split(name, "_")[0]

	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return err
	}
	if applied {
		m.log.Debug().Str("migration", name).Msg("migration already applied, skipping")
		return nil
	}

	content, err := migrationFS.ReadFile("sql/" + name)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := m.conn.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("error occurred during SQL migration execution: %w", err)
	}
	if err := m.recordMigration(ctx, version); err != nil {
		return err
	}

	m.log.Info().Str("migration", name).Msg("migration applied")
	return nil
}

// Migrate applies all embedded migrations in lexical order
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("sql")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.applyFile(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
