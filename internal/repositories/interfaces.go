// internal/repositories/interfaces.go
package repositories

import (
	"context"

	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/google/uuid"
)

// SnapshotRepository stores and retrieves observation snapshots. The caller is
// responsible for serializing writes per (project, topic, provider) key so that
// GetLatest lookups are race-free.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.Snapshot) error
	// GetLatest returns the most recent snapshot for the key, or nil when no
	// prior observation exists.
	GetLatest(ctx context.Context, projectID, topicID uuid.UUID, provider string) (*models.Snapshot, error)
}

// DriftRecordRepository stores drift records and their acknowledgement state.
type DriftRecordRepository interface {
	CreateBatch(ctx context.Context, records []*models.DriftRecord) error
	Acknowledge(ctx context.Context, driftRecordID uuid.UUID) error
	// ListUnacknowledged returns open drift records for a project at or above
	// the given severity, newest first.
	ListUnacknowledged(ctx context.Context, projectID uuid.UUID, minSeverity models.Severity) ([]*models.DriftRecord, error)
}
