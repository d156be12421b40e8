package migration

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/jmoiron/sqlx"

	"orgscout/internal"
)

// step is one versioned schema change. Statements are embedded so the
// binary migrates itself on startup without shipping .sql files.
type step struct {
	Version string
	SQL     string
}

var steps = []step{
	{
		Version: "001_validated_signals",
		SQL: `
			CREATE TABLE IF NOT EXISTS validated_signals (
				id TEXT PRIMARY KEY,
				entity_id TEXT NOT NULL,
				signal_type TEXT NOT NULL,
				confidence DOUBLE PRECISION NOT NULL,
				validated BOOLEAN NOT NULL DEFAULT TRUE,
				validation_pass INTEGER NOT NULL,
				evidence JSONB NOT NULL,
				metadata JSONB,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
	},
	{
		Version: "002_signals_entity_created_idx",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_validated_signals_entity_created
			ON validated_signals (entity_id, created_at DESC)`,
	},
}

// Runner applies pending schema migrations in order.
type Runner struct {
	db  *sqlx.DB
	log *internal.Logger
}

// NewRunner creates a migration runner
func NewRunner(db *sqlx.DB) *Runner {
	return &Runner{db: db, log: internal.Component("Migration")}
}

// Up applies all pending migrations inside transactions, recording each
// applied version with a checksum.
func (r *Runner) Up(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, s := range steps {
		if applied[s.Version] {
			continue
		}
		if err := r.apply(ctx, s); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", s.Version, err)
		}
		r.log.Info("applied migration %s", s.Version)
	}

	return nil
}

// Status logs applied vs pending versions and returns the pending count.
func (r *Runner) Status(ctx context.Context) (int, error) {
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	pending := 0
	for _, s := range steps {
		state := "applied"
		if !applied[s.Version] {
			state = "pending"
			pending++
		}
		r.log.Info("%s: %s", s.Version, state)
	}
	return pending, nil
}

func (r *Runner) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return map[string]bool{}, nil // table absent on first run
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (r *Runner) apply(ctx context.Context, s step) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	checksum := fmt.Sprintf("%x", sha256.Sum256([]byte(s.SQL)))
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)`, s.Version, checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
