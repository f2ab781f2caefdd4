package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

const createLedger = `CREATE TABLE IF NOT EXISTS schema_migrations (
  name       TEXT        PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

var steps = []migrationStep{
	{
		Name: "create_table_bookmarks",
		SQL: `CREATE TABLE IF NOT EXISTS bookmarks (
  id        BIGSERIAL    PRIMARY KEY,
  url       VARCHAR(200) NOT NULL UNIQUE,
  title     VARCHAR(255) NOT NULL,
  note      TEXT         NOT NULL DEFAULT '',
  favourite BOOLEAN      NOT NULL DEFAULT false
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           UUID         PRIMARY KEY,
  title        VARCHAR(255) NOT NULL,
  storage_path TEXT         NOT NULL UNIQUE,
  filename     VARCHAR(255) NOT NULL DEFAULT '',
  size         BIGINT       NOT NULL CHECK (size >= 0),
  content_type VARCHAR(255) NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_bookmarks_title",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_bookmarks_title ON bookmarks (title);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
}

// EnsureMigrated applies every step not yet recorded in the schema_migrations ledger.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	start := time.Now()
	log = log.With().Str("component", "database").Logger()

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Send()

	if _, err := db.ExecContext(ctx, createLedger); err != nil {
		log.Error().Str("event", "db_migration_failed").Str("status", "error").
			Err(err).Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to create migration ledger")
		return fmt.Errorf("failed to create migration ledger: %w", err)
	}

	applied, err := appliedSteps(ctx, db)
	if err != nil {
		log.Error().Str("event", "db_migration_failed").Str("status", "error").
			Err(err).Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to read migration ledger")
		return err
	}

	pending := 0
	for _, step := range steps {
		if applied[step.Name] {
			continue
		}
		pending++
		stepStart := time.Now()
		if err := apply(ctx, db, step); err != nil {
			log.Error().Str("event", "db_migration_failed").Str("status", "error").
				Str("migration_step", step.Name).Err(err).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Send()
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info().Str("event", "db_migration_step").Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Send()
	}

	if pending == 0 {
		log.Info().Str("event", "db_migration_skip").Str("status", "success").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already up to date, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_success").Str("status", "success").
		Int("applied_steps", pending).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Send()
	return nil
}

func appliedSteps(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration ledger: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// apply runs a step and records it in one transaction.
func apply(ctx context.Context, db *sql.DB, step migrationStep) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, step.Name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
