package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kbukum/asrkit/logger"
)

// Migration is one schema change, applied at most once.
type Migration struct {
	ID          string
	Description string
	Up          func(ctx context.Context, tx *sql.Tx) error
}

// migrationRunner applies migrations tracked in a schema_migrations table.
type migrationRunner struct {
	db         *sql.DB
	log        *logger.Logger
	migrations []Migration
}

func newMigrationRunner(db *sql.DB, log *logger.Logger, migrations ...Migration) *migrationRunner {
	return &migrationRunner{db: db, log: log, migrations: migrations}
}

// run applies all pending migrations in order, each in its own transaction.
func (mr *migrationRunner) run(ctx context.Context) error {
	if _, err := mr.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range mr.migrations {
		var count int
		if err := mr.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM schema_migrations WHERE id = ?`, m.ID).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", m.ID, err)
		}
		if count > 0 {
			mr.log.Debug("migration already applied", logger.Fields("id", m.ID))
			continue
		}

		mr.log.Info("applying migration", logger.Fields("id", m.ID, "description", m.Description))
		if err := inTx(ctx, mr.db, func(tx *sql.Tx) error {
			if err := m.Up(ctx, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (id) VALUES (?)`, m.ID)
			return err
		}); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.ID, err)
		}
	}
	return nil
}

func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func execAll(stmts ...string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}
}

var migrations = []Migration{
	{
		ID:          "0001_runs",
		Description: "aggregation runs and their rows",
		Up: execAll(
			`CREATE TABLE runs (
				id TEXT PRIMARY KEY,
				directory TEXT NOT NULL,
				report_path TEXT NOT NULL DEFAULT '',
				started_at TEXT NOT NULL,
				duration_ms INTEGER NOT NULL DEFAULT 0,
				pair_count INTEGER NOT NULL,
				failure_count INTEGER NOT NULL,
				unmatched_count INTEGER NOT NULL,
				mean_wer REAL NOT NULL,
				corpus_wer REAL NOT NULL
			)`,
			`CREATE INDEX idx_runs_started_at ON runs (started_at)`,
			`CREATE TABLE run_rows (
				run_id TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				reference_file TEXT NOT NULL,
				hypothesis_file TEXT NOT NULL,
				word_error_rate REAL NOT NULL,
				reference_word_count INTEGER NOT NULL,
				asr_word_count INTEGER NOT NULL,
				PRIMARY KEY (run_id, position)
			)`,
		),
	},
	{
		ID:          "0002_failures",
		Description: "per-pair failures",
		Up: execAll(
			`CREATE TABLE run_failures (
				run_id TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
				reference_file TEXT NOT NULL,
				hypothesis_file TEXT NOT NULL,
				code TEXT NOT NULL,
				message TEXT NOT NULL
			)`,
		),
	},
}
