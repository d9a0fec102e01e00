// services/interfaces.go
package services

import (
	"context"

	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/AI-Template-SDK/senso-analysis/internal/repositories"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RepositoryManager manages all database repositories
type RepositoryManager struct {
	db              *sqlx.DB
	SnapshotRepo    repositories.SnapshotRepository
	DriftRecordRepo repositories.DriftRecordRepository
}

// NewRepositoryManager creates a new repository manager with all repositories
func NewRepositoryManager(db *sqlx.DB) *RepositoryManager {
	return &RepositoryManager{
		db:              db,
		SnapshotRepo:    repositories.NewSnapshotRepo(db),
		DriftRecordRepo: repositories.NewDriftRecordRepo(db),
	}
}

// BeginTx starts a database transaction
func (rm *RepositoryManager) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return rm.db.BeginTxx(ctx, nil)
}

// EntityMatcherService locates brand and competitor name occurrences in text.
type EntityMatcherService interface {
	// FindMentions scans text for every roster entity. It never fails; an
	// empty roster yields an empty mention list.
	FindMentions(text string, roster *models.EntityRoster) []*models.Mention
	// FindMentionsIndexed is the same scan against a prebuilt roster index,
	// for callers amortizing roster prep across many responses.
	FindMentionsIndexed(text string, index *RosterIndex) []*models.Mention
}

// CitationService locates and normalizes cited URLs and optionally validates
// their reachability.
type CitationService interface {
	ExtractCitations(text string, ownDomains []string) []*models.Citation
	// ExtractFromExplicitList builds citations from provider-supplied URL
	// metadata instead of inline links.
	ExtractFromExplicitList(text string, urls []string, ownDomains []string) []*models.Citation
	// ValidateCitations annotates accessibility in place under a bounded
	// concurrency gate. A timeout on one citation leaves its accessibility
	// unknown; only context cancellation aborts the batch.
	ValidateCitations(ctx context.Context, citations []*models.Citation) error
}

// SentimentService scores polarity of a whole text or of a window around one
// mention.
type SentimentService interface {
	Analyze(text string) *models.SentimentResult
	AnalyzeWindow(fullText string, start, end, windowSize int) *models.SentimentResult
}

// ScoringService combines matcher, extractor and analyzer outputs into a
// weighted, explainable visibility score for one response.
type ScoringService interface {
	// Score is pure and idempotent: identical inputs always yield an
	// identical breakdown. mentionSentiments is parallel to mentions;
	// missing entries are treated as neutral.
	Score(mentions []*models.Mention, citations []*models.Citation, mentionSentiments []*models.SentimentResult, providerWeight float64) *models.ScoreBreakdown
}

// ProviderWeightService supplies the per-provider market-importance multiplier
// applied to raw visibility scores.
type ProviderWeightService interface {
	GetWeight(provider string) float64
}

// DriftService compares a new observation snapshot against a prior baseline
// for the same (project, topic, provider) key.
type DriftService interface {
	// DetectDrift emits typed, severity-ranked change records. A nil baseline
	// loads the most recent prior snapshot for the key; if none exists the
	// result is empty (a first observation cannot drift).
	DetectDrift(ctx context.Context, current *models.Snapshot, baseline *models.Snapshot) ([]*models.DriftRecord, error)
}

// AnalysisService orchestrates the full per-response pipeline.
type AnalysisService interface {
	AnalyzeResponse(ctx context.Context, req *AnalysisRequest) (*AnalysisResult, error)
	ProcessResponses(ctx context.Context, reqs []*AnalysisRequest) (*AnalysisSummary, error)
	// SaveSnapshot persists an analysis snapshot, flagging it as baseline when
	// it is the first observation for its (project, topic, provider) key.
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
}

// AnalysisRequest carries one raw model answer plus the caller-owned context
// needed to analyze it.
type AnalysisRequest struct {
	ProjectID         uuid.UUID
	TopicID           uuid.UUID
	Provider          string
	ResponseText      string
	Roster            *models.EntityRoster
	OwnDomains        []string // organization website domains for citation classification
	ExplicitCitations []string // provider-supplied citation URLs, if any
	ValidateCitations bool     // run the optional reachability pass
}

// AnalysisResult bundles every transient artifact of one analysis call. The
// caller persists what it needs; the pipeline holds no state between calls.
type AnalysisResult struct {
	Mentions          []*models.Mention
	Citations         []*models.Citation
	OverallSentiment  *models.SentimentResult
	MentionSentiments []*models.SentimentResult // parallel to Mentions
	Breakdown         *models.ScoreBreakdown
	Snapshot          *models.Snapshot
}

// AnalysisSummary reports a batch run. Per-item failures are collected, never
// raised; callers always receive a best-effort result set.
type AnalysisSummary struct {
	TotalProcessed   int
	TotalMentions    int
	TotalCitations   int
	Results          []*AnalysisResult
	ProcessingErrors []string
}
