// internal/repositories/snapshot_repo.go
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type snapshotRepo struct {
	db *sqlx.DB
}

// NewSnapshotRepo creates a Postgres-backed snapshot repository.
func NewSnapshotRepo(db *sqlx.DB) SnapshotRepository {
	return &snapshotRepo{db: db}
}

// snapshotRow flattens the JSON-typed columns for sqlx scanning.
type snapshotRow struct {
	SnapshotID          uuid.UUID    `db:"snapshot_id"`
	ProjectID           uuid.UUID    `db:"project_id"`
	TopicID             uuid.UUID    `db:"topic_id"`
	Provider            string       `db:"provider"`
	BrandMentioned      bool         `db:"brand_mentioned"`
	BrandPosition       *int         `db:"brand_position"`
	CompetitorPositions []byte       `db:"competitor_positions"`
	CitationURLs        []byte       `db:"citation_urls"`
	SentimentPolarity   string       `db:"sentiment_polarity"`
	VisibilityScore     float64      `db:"visibility_score"`
	IsBaseline          bool         `db:"is_baseline"`
	CreatedAt           sql.NullTime `db:"created_at"`
}

func (r *snapshotRepo) Create(ctx context.Context, snapshot *models.Snapshot) error {
	competitorJSON, err := json.Marshal(snapshot.CompetitorPositions)
	if err != nil {
		return fmt.Errorf("failed to marshal competitor positions: %w", err)
	}
	citationsJSON, err := json.Marshal(snapshot.CitationURLs)
	if err != nil {
		return fmt.Errorf("failed to marshal citation urls: %w", err)
	}

	query := `
		INSERT INTO snapshots (
			snapshot_id, project_id, topic_id, provider,
			brand_mentioned, brand_position, competitor_positions, citation_urls,
			sentiment_polarity, visibility_score, is_baseline, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.ExecContext(ctx, query,
		snapshot.SnapshotID, snapshot.ProjectID, snapshot.TopicID, snapshot.Provider,
		snapshot.BrandMentioned, snapshot.BrandPosition, competitorJSON, citationsJSON,
		string(snapshot.SentimentPolarity), snapshot.VisibilityScore, snapshot.IsBaseline, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) GetLatest(ctx context.Context, projectID, topicID uuid.UUID, provider string) (*models.Snapshot, error) {
	query := `
		SELECT snapshot_id, project_id, topic_id, provider,
		       brand_mentioned, brand_position, competitor_positions, citation_urls,
		       sentiment_polarity, visibility_score, is_baseline, created_at
		FROM snapshots
		WHERE project_id = $1 AND topic_id = $2 AND provider = $3
		ORDER BY created_at DESC
		LIMIT 1`

	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, query, projectID, topicID, provider); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	return rowToSnapshot(&row)
}

func rowToSnapshot(row *snapshotRow) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{
		SnapshotID:        row.SnapshotID,
		ProjectID:         row.ProjectID,
		TopicID:           row.TopicID,
		Provider:          row.Provider,
		BrandMentioned:    row.BrandMentioned,
		BrandPosition:     row.BrandPosition,
		SentimentPolarity: models.Polarity(row.SentimentPolarity),
		VisibilityScore:   row.VisibilityScore,
		IsBaseline:        row.IsBaseline,
	}
	if row.CreatedAt.Valid {
		snapshot.CreatedAt = row.CreatedAt.Time
	}
	if len(row.CompetitorPositions) > 0 {
		if err := json.Unmarshal(row.CompetitorPositions, &snapshot.CompetitorPositions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal competitor positions: %w", err)
		}
	}
	if len(row.CitationURLs) > 0 {
		if err := json.Unmarshal(row.CitationURLs, &snapshot.CitationURLs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal citation urls: %w", err)
		}
	}
	return snapshot, nil
}
