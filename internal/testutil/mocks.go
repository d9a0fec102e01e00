// internal/testutil/mocks.go
package testutil

import (
	"context"

	"github.com/AI-Template-SDK/senso-analysis/internal/config"
	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/google/uuid"
)

// MockSnapshotRepository implements repositories.SnapshotRepository with
// function fields so each test stubs only what it exercises.
type MockSnapshotRepository struct {
	CreateFunc    func(ctx context.Context, snapshot *models.Snapshot) error
	GetLatestFunc func(ctx context.Context, projectID, topicID uuid.UUID, provider string) (*models.Snapshot, error)

	Created []*models.Snapshot
}

func (m *MockSnapshotRepository) Create(ctx context.Context, snapshot *models.Snapshot) error {
	m.Created = append(m.Created, snapshot)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, snapshot)
	}
	return nil
}

func (m *MockSnapshotRepository) GetLatest(ctx context.Context, projectID, topicID uuid.UUID, provider string) (*models.Snapshot, error) {
	if m.GetLatestFunc != nil {
		return m.GetLatestFunc(ctx, projectID, topicID, provider)
	}
	return nil, nil
}

// MockDriftRecordRepository implements repositories.DriftRecordRepository.
type MockDriftRecordRepository struct {
	CreateBatchFunc        func(ctx context.Context, records []*models.DriftRecord) error
	AcknowledgeFunc        func(ctx context.Context, driftRecordID uuid.UUID) error
	ListUnacknowledgedFunc func(ctx context.Context, projectID uuid.UUID, minSeverity models.Severity) ([]*models.DriftRecord, error)

	CreatedBatches [][]*models.DriftRecord
}

func (m *MockDriftRecordRepository) CreateBatch(ctx context.Context, records []*models.DriftRecord) error {
	m.CreatedBatches = append(m.CreatedBatches, records)
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, records)
	}
	return nil
}

func (m *MockDriftRecordRepository) Acknowledge(ctx context.Context, driftRecordID uuid.UUID) error {
	if m.AcknowledgeFunc != nil {
		return m.AcknowledgeFunc(ctx, driftRecordID)
	}
	return nil
}

func (m *MockDriftRecordRepository) ListUnacknowledged(ctx context.Context, projectID uuid.UUID, minSeverity models.Severity) ([]*models.DriftRecord, error) {
	if m.ListUnacknowledgedFunc != nil {
		return m.ListUnacknowledgedFunc(ctx, projectID, minSeverity)
	}
	return nil, nil
}

// DefaultAnalysisConfig returns the standard pipeline tuning used across tests.
func DefaultAnalysisConfig() *config.AnalysisConfig {
	return &config.AnalysisConfig{
		FuzzyMatchThreshold: 0.85,
		NegationLookback:    30,
		ContextWindow:       100,
		SentimentWindow:     150,
	}
}

// SampleRoster builds a roster with one tracked brand and two competitors.
func SampleRoster() *models.EntityRoster {
	return &models.EntityRoster{
		Entities: []*models.Entity{
			{
				ID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
				Name:       "Acme",
				Aliases:    []string{"Acme Analytics"},
				IsOwnBrand: true,
			},
			{
				ID:   uuid.MustParse("22222222-2222-2222-2222-222222222222"),
				Name: "Globex",
			},
			{
				ID:   uuid.MustParse("33333333-3333-3333-3333-333333333333"),
				Name: "Initech",
			},
		},
	}
}
