// internal/repositories/drift_repo.go
package repositories

import (
	"context"
	"fmt"

	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type driftRecordRepo struct {
	db *sqlx.DB
}

// NewDriftRecordRepo creates a Postgres-backed drift record repository.
func NewDriftRecordRepo(db *sqlx.DB) DriftRecordRepository {
	return &driftRecordRepo{db: db}
}

func (r *driftRecordRepo) CreateBatch(ctx context.Context, records []*models.DriftRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO drift_records (
			drift_record_id, snapshot_id, drift_kind, severity,
			previous_value, current_value, description, affected_entity,
			position_delta, recommended_action, acknowledged,
			baseline_timestamp, current_timestamp_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin drift record transaction: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		_, err := tx.ExecContext(ctx, query,
			record.DriftRecordID, record.SnapshotID, string(record.DriftKind), string(record.Severity),
			record.PreviousValue, record.CurrentValue, record.Description, record.AffectedEntity,
			record.PositionDelta, record.RecommendedAction, record.Acknowledged,
			record.BaselineTimestamp, record.CurrentTimestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert drift record %s: %w", record.DriftRecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit drift records: %w", err)
	}
	return nil
}

func (r *driftRecordRepo) Acknowledge(ctx context.Context, driftRecordID uuid.UUID) error {
	query := `UPDATE drift_records SET acknowledged = TRUE WHERE drift_record_id = $1`

	result, err := r.db.ExecContext(ctx, query, driftRecordID)
	if err != nil {
		return fmt.Errorf("failed to acknowledge drift record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read acknowledge result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("drift record %s not found", driftRecordID)
	}
	return nil
}

func (r *driftRecordRepo) ListUnacknowledged(ctx context.Context, projectID uuid.UUID, minSeverity models.Severity) ([]*models.DriftRecord, error) {
	query := `
		SELECT d.drift_record_id, d.snapshot_id, d.drift_kind, d.severity,
		       d.previous_value, d.current_value, d.description, d.affected_entity,
		       d.position_delta, d.recommended_action, d.acknowledged,
		       d.baseline_timestamp, d.current_timestamp_at
		FROM drift_records d
		JOIN snapshots s ON s.snapshot_id = d.snapshot_id
		WHERE s.project_id = $1 AND d.acknowledged = FALSE
		ORDER BY d.current_timestamp_at DESC`

	var rows []*models.DriftRecord
	if err := r.db.SelectContext(ctx, &rows, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to list drift records: %w", err)
	}

	minRank := models.SeverityRank(minSeverity)
	filtered := make([]*models.DriftRecord, 0, len(rows))
	for _, record := range rows {
		if models.SeverityRank(record.Severity) >= minRank {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}
