package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"orgscout/domain/core"
	"orgscout/domain/signal"
)

// SignalRepository persists validated signals. Evidence and metadata are
// stored as JSONB columns; upserts key on the signal ID.
type SignalRepository struct {
	db *sqlx.DB
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db *sqlx.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// UpsertSignal persists a validated signal, replacing any prior row with
// the same ID.
func (r *SignalRepository) UpsertSignal(ctx context.Context, s *signal.ValidatedSignal) error {
	query := `
		INSERT INTO validated_signals (
			id, entity_id, signal_type, confidence, validated,
			validation_pass, evidence, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			confidence = EXCLUDED.confidence,
			validated = EXCLUDED.validated,
			validation_pass = EXCLUDED.validation_pass,
			evidence = EXCLUDED.evidence,
			metadata = EXCLUDED.metadata`

	evidenceJSON, err := json.Marshal(s.Evidence)
	if err != nil {
		return fmt.Errorf("failed to marshal evidence: %w", err)
	}
	metadataJSON, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		s.ID.String(),
		s.EntityID.String(),
		s.Type,
		s.Confidence,
		s.Validated,
		s.ValidationPass,
		evidenceJSON,
		metadataJSON,
		s.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert signal %s: %w", s.ID, err)
	}

	return nil
}

// QueryRecentSignals returns the validated signals for an entity created
// inside the trailing window, newest first.
func (r *SignalRepository) QueryRecentSignals(ctx context.Context, entity core.EntityID, window time.Duration) ([]signal.ValidatedSignal, error) {
	query := `
		SELECT id, entity_id, signal_type, confidence, validated,
			   validation_pass, evidence, metadata, created_at
		FROM validated_signals
		WHERE entity_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`

	cutoff := time.Now().UTC().Add(-window)

	rows, err := r.db.QueryContext(ctx, query, entity.String(), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}
	defer rows.Close()

	var signals []signal.ValidatedSignal
	for rows.Next() {
		var (
			s            signal.ValidatedSignal
			id, entityID string
			evidenceJSON []byte
			metadataJSON []byte
			createdAt    time.Time
		)

		err := rows.Scan(
			&id,
			&entityID,
			&s.Type,
			&s.Confidence,
			&s.Validated,
			&s.ValidationPass,
			&evidenceJSON,
			&metadataJSON,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal row: %w", err)
		}

		s.ID = core.SignalID(id)
		s.EntityID = core.EntityID(entityID)
		s.CreatedAt = core.NewTimestamp(createdAt)

		if err := json.Unmarshal(evidenceJSON, &s.Evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence for signal %s: %w", id, err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &s.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for signal %s: %w", id, err)
			}
		}

		signals = append(signals, s)
	}

	return signals, rows.Err()
}

// CountByEntity returns the number of validated signals stored per entity.
func (r *SignalRepository) CountByEntity(ctx context.Context, entity core.EntityID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM validated_signals WHERE entity_id = $1`, entity.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return count, nil
}
