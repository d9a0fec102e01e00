// services/analysis_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/senso-analysis/internal/config"
	"github.com/AI-Template-SDK/senso-analysis/internal/logging"
	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/AI-Template-SDK/senso-analysis/internal/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type analysisService struct {
	cfg            *config.AnalysisConfig
	entityMatcher  EntityMatcherService
	citations      CitationService
	sentiment      SentimentService
	scoring        ScoringService
	providerWeight ProviderWeightService
	snapshotRepo   repositories.SnapshotRepository
	logger         *logrus.Entry
}

// NewAnalysisService wires the full per-response pipeline. snapshotRepo may be
// nil for callers that only want in-memory analysis without persistence.
func NewAnalysisService(
	cfg *config.AnalysisConfig,
	entityMatcher EntityMatcherService,
	citations CitationService,
	sentiment SentimentService,
	scoring ScoringService,
	providerWeight ProviderWeightService,
	snapshotRepo repositories.SnapshotRepository,
) AnalysisService {
	return &analysisService{
		cfg:            cfg,
		entityMatcher:  entityMatcher,
		citations:      citations,
		sentiment:      sentiment,
		scoring:        scoring,
		providerWeight: providerWeight,
		snapshotRepo:   snapshotRepo,
		logger:         logging.NewComponentLogger("analysis_pipeline"),
	}
}

func (s *analysisService) AnalyzeResponse(ctx context.Context, req *AnalysisRequest) (*AnalysisResult, error) {
	if req == nil {
		return nil, fmt.Errorf("analysis request is required")
	}

	// An empty or nil roster is analyzable text with nothing to match: the
	// pipeline runs through and produces a brand-absent result.
	mentions := s.entityMatcher.FindMentions(req.ResponseText, req.Roster)

	var citations []*models.Citation
	if len(req.ExplicitCitations) > 0 {
		citations = s.citations.ExtractFromExplicitList(req.ResponseText, req.ExplicitCitations, req.OwnDomains)
	} else {
		citations = s.citations.ExtractCitations(req.ResponseText, req.OwnDomains)
	}

	if req.ValidateCitations {
		if err := s.citations.ValidateCitations(ctx, citations); err != nil {
			return nil, fmt.Errorf("citation validation aborted: %w", err)
		}
	}

	overall := s.sentiment.Analyze(req.ResponseText)
	mentionSentiments := make([]*models.SentimentResult, len(mentions))
	for i, mention := range mentions {
		start := mention.CharacterOffset
		end := start + len(mention.MatchedText)
		mentionSentiments[i] = s.sentiment.AnalyzeWindow(req.ResponseText, start, end, s.cfg.SentimentWindow)
	}

	weight := s.providerWeight.GetWeight(req.Provider)
	breakdown := s.scoring.Score(mentions, citations, mentionSentiments, weight)

	result := &AnalysisResult{
		Mentions:          mentions,
		Citations:         citations,
		OverallSentiment:  overall,
		MentionSentiments: mentionSentiments,
		Breakdown:         breakdown,
		Snapshot:          s.buildSnapshot(req, mentions, citations, mentionSentiments, overall, breakdown),
	}

	s.logger.WithFields(logging.Fields{
		"project_id": req.ProjectID,
		"provider":   req.Provider,
		"mentions":   len(mentions),
		"citations":  len(citations),
		"score":      breakdown.TotalWeighted,
	}).Info("response analysis complete")

	return result, nil
}

func (s *analysisService) ProcessResponses(ctx context.Context, reqs []*AnalysisRequest) (*AnalysisSummary, error) {
	summary := &AnalysisSummary{
		Results:          make([]*AnalysisResult, 0, len(reqs)),
		ProcessingErrors: []string{},
	}

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := s.AnalyzeResponse(ctx, req)
		if err != nil {
			summary.ProcessingErrors = append(summary.ProcessingErrors,
				fmt.Sprintf("response %d: %v", i, err))
			continue
		}

		summary.TotalProcessed++
		summary.TotalMentions += len(result.Mentions)
		summary.TotalCitations += len(result.Citations)
		summary.Results = append(summary.Results, result)
	}

	s.logger.WithFields(logging.Fields{
		"processed": summary.TotalProcessed,
		"failed":    len(summary.ProcessingErrors),
	}).Info("batch analysis complete")

	return summary, nil
}

func (s *analysisService) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is required")
	}
	if s.snapshotRepo == nil {
		return fmt.Errorf("analysis service was built without snapshot persistence")
	}

	prior, err := s.snapshotRepo.GetLatest(ctx, snapshot.ProjectID, snapshot.TopicID, snapshot.Provider)
	if err != nil {
		return fmt.Errorf("failed to check for prior snapshot: %w", err)
	}
	snapshot.IsBaseline = prior == nil

	if err := s.snapshotRepo.Create(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// buildSnapshot condenses one analysis into the durable comparison record.
// Sentiment is the aggregate polarity over brand mention windows, falling back
// to the whole-response polarity when the brand never appears.
func (s *analysisService) buildSnapshot(
	req *AnalysisRequest,
	mentions []*models.Mention,
	citations []*models.Citation,
	mentionSentiments []*models.SentimentResult,
	overall *models.SentimentResult,
	breakdown *models.ScoreBreakdown,
) *models.Snapshot {
	snapshot := &models.Snapshot{
		SnapshotID:          uuid.New(),
		ProjectID:           req.ProjectID,
		TopicID:             req.TopicID,
		Provider:            req.Provider,
		CompetitorPositions: make(map[string]int),
		CitationURLs:        make([]string, 0, len(citations)),
		SentimentPolarity:   overall.Polarity,
		VisibilityScore:     breakdown.TotalWeighted,
		CreatedAt:           time.Now().UTC(),
	}

	var brandScore float64
	var brandCount int
	for i, mention := range mentions {
		if mention.IsOwnBrand {
			snapshot.BrandMentioned = true
			if snapshot.BrandPosition == nil || mention.Position < *snapshot.BrandPosition {
				pos := mention.Position
				snapshot.BrandPosition = &pos
			}
			if i < len(mentionSentiments) && mentionSentiments[i] != nil {
				brandScore += mentionSentiments[i].Score
				brandCount++
			}
			continue
		}
		if existing, exists := snapshot.CompetitorPositions[mention.CanonicalName]; !exists || mention.Position < existing {
			snapshot.CompetitorPositions[mention.CanonicalName] = mention.Position
		}
	}

	if brandCount > 0 {
		mean := brandScore / float64(brandCount)
		switch {
		case mean > 0.2:
			snapshot.SentimentPolarity = models.PolarityPositive
		case mean < -0.2:
			snapshot.SentimentPolarity = models.PolarityNegative
		default:
			snapshot.SentimentPolarity = models.PolarityNeutral
		}
	}

	for _, citation := range citations {
		snapshot.CitationURLs = append(snapshot.CitationURLs, citation.URL)
	}

	return snapshot
}
